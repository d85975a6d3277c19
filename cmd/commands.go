package main

import (
	"cine-chat/domain"
	"cine-chat/services"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"
)

func runCommand(ctx context.Context, args []string, out io.Writer, authService services.IAuthService, rooms services.IRoomService) error {
	switch {
	case args[0] == "token" && len(args) == 2:
		pair, err := authService.Seed(ctx, args[1])
		if err != nil {
			return err
		}
		return json.NewEncoder(out).Encode(pair)
	case args[0] == "rooms" && len(args) == 1:
		return printRooms(ctx, out, rooms)
	default:
		return configError{fmt.Errorf("usage: cine-chat [token <username> | rooms]")}
	}
}

// printRooms walks every page of active rooms, newest first.
func printRooms(ctx context.Context, out io.Writer, rooms services.IRoomService) error {
	table := tablewriter.NewWriter(out)
	table.SetHeader([]string{"ID", "Name", "Participants", "Created"})
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")

	page := domain.PageRequest{}
	for {
		result, err := rooms.ListActive(ctx, page)
		if err != nil {
			return err
		}
		for _, room := range result.Items {
			table.Append([]string{
				strconv.FormatInt(int64(room.ID), 10),
				room.Name,
				fmt.Sprintf("%d/%d", room.Size(), room.MaxParticipants),
				room.CreatedAt.Format(time.RFC3339),
			})
		}
		if result.NextCursor == nil {
			break
		}
		page.Cursor = result.NextCursor
	}
	table.Render()
	return nil
}
