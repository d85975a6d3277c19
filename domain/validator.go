package domain

import (
	"cine-chat/errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	if err := v.RegisterValidation("notblank", validators.NotBlank); err != nil {
		panic(err)
	}
	return v
}

type messageContent struct {
	Content string `validate:"notblank,max=500"`
}

// ValidateContent is shared by the relay and the REST surface.
func ValidateContent(content string) error {
	if err := validate.Struct(messageContent{Content: content}); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrInvalidContent, err)
	}
	return nil
}

// WithDefaults fills the optional fields of a creation request.
func (n NewRoom) WithDefaults() NewRoom {
	if n.MaxParticipants == 0 {
		n.MaxParticipants = DefaultMaxParticipants
	}
	return n
}

func (n NewRoom) Validate() error {
	if err := validate.Struct(n); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrInvalidRoom, err)
	}
	return nil
}
