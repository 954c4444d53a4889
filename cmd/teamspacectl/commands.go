package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/matheus3301/teamspace/internal/client"
	"github.com/matheus3301/teamspace/internal/workspace"
	"github.com/spf13/cobra"
)

func newStatusCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show daemon status and collection sizes",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			return g.run(func(ctx context.Context, c *client.Client) error {
				st, err := c.GetStatus(ctx)
				if err != nil {
					return err
				}
				if g.json {
					return outputJSON(st)
				}
				printStatus(st)
				return nil
			})
		},
	}
}

func newListCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:       "list <collection>",
		Short:     "List the entities of a collection",
		Args:      cobra.ExactArgs(1),
		ValidArgs: collectionNames(),
		RunE: func(_ *cobra.Command, args []string) error {
			return g.run(func(ctx context.Context, c *client.Client) error {
				var items []map[string]any
				if err := c.List(ctx, args[0], &items); err != nil {
					return err
				}
				if g.json {
					return outputJSON(items)
				}
				printItems(items)
				return nil
			})
		},
	}
}

func newUpsertCmd(g *globals) *cobra.Command {
	var data string
	cmd := &cobra.Command{
		Use:   "upsert <collection>",
		Short: "Create an entity, or update it when the data carries an id",
		Long:  "Create an entity, or update it when the data carries an id.\nData is a JSON object, or @path to read it from a file.",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			item, err := readItem(data)
			if err != nil {
				return err
			}
			return g.run(func(ctx context.Context, c *client.Client) error {
				var stored map[string]any
				if err := c.Upsert(ctx, args[0], item, &stored); err != nil {
					return err
				}
				if g.json {
					return outputJSON(stored)
				}
				successf("saved %s %v", args[0], stored["id"])
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&data, "data", "d", "", "entity as JSON, or @file")
	_ = cmd.MarkFlagRequired("data")
	return cmd
}

func newDeleteCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <collection> <id>",
		Short: "Delete an entity and clean up references to it",
		Args:  cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			return g.run(func(ctx context.Context, c *client.Client) error {
				if err := c.Delete(ctx, args[0], args[1]); err != nil {
					return err
				}
				successf("deleted %s %s", args[0], args[1])
				return nil
			})
		},
	}
}

func newSendCmd(g *globals) *cobra.Command {
	var sender string
	cmd := &cobra.Command{
		Use:   "send <conversation-id> <content>",
		Short: "Send a message to a conversation",
		Args:  cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			return g.run(func(ctx context.Context, c *client.Client) error {
				msg, err := c.SendMessage(ctx, args[0], sender, args[1])
				if err != nil {
					return err
				}
				if g.json {
					return outputJSON(msg)
				}
				successf("message %s %s", msg.ID, msg.Status)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&sender, "as", "", "sending team member id")
	_ = cmd.MarkFlagRequired("as")
	return cmd
}

func newReadCmd(g *globals) *cobra.Command {
	var reader string
	cmd := &cobra.Command{
		Use:   "read <conversation-id>",
		Short: "Mark a conversation read",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return g.run(func(ctx context.Context, c *client.Client) error {
				n, err := c.MarkRead(ctx, args[0], reader)
				if err != nil {
					return err
				}
				if g.json {
					return outputJSON(map[string]int{"updated": n})
				}
				successf("%d message(s) marked read", n)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&reader, "as", "", "reading team member id")
	_ = cmd.MarkFlagRequired("as")
	return cmd
}

func newJoinCmd(g *globals) *cobra.Command {
	return meetingCmd(g, "join", "Join a meeting", (*client.Client).JoinMeeting)
}

func newCancelCmd(g *globals) *cobra.Command {
	return meetingCmd(g, "cancel", "Cancel a meeting", (*client.Client).CancelMeeting)
}

func meetingCmd(g *globals, use, short string, action func(*client.Client, context.Context, string) (workspace.Meeting, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <meeting-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return g.run(func(ctx context.Context, c *client.Client) error {
				m, err := action(c, ctx, args[0])
				if err != nil {
					return err
				}
				if g.json {
					return outputJSON(m)
				}
				successf("%s is %s", m.Title, m.Status)
				return nil
			})
		},
	}
}

func newResetCmd(g *globals) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Discard all stored data and reload the seed dataset",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			if !force {
				return fmt.Errorf("reset deletes every collection; pass --force to confirm")
			}
			return g.run(func(ctx context.Context, c *client.Client) error {
				counts, err := c.Reset(ctx)
				if err != nil {
					return err
				}
				if g.json {
					return outputJSON(counts)
				}
				successf("workspace reset to %d collections", len(counts))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "confirm the reset")
	return cmd
}

func newWatchCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "watch [namespace]",
		Short: "Stream workspace events, optionally filtered by kind prefix",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			namespace := ""
			if len(args) == 1 {
				namespace = args[0]
			}
			c, _, err := g.connect()
			if err != nil {
				return err
			}
			defer func() { _ = c.Close() }()

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return c.Watch(ctx, namespace, func(evt client.Event) error {
				if g.json {
					return outputJSON(evt)
				}
				printEvent(evt)
				return nil
			})
		},
	}
}

func collectionNames() []string {
	names := make([]string, 0, len(workspace.Collections))
	for _, c := range workspace.Collections {
		names = append(names, string(c))
	}
	sort.Strings(names)
	return names
}

// readItem parses an inline JSON object or, with a leading @, a file.
func readItem(data string) (map[string]any, error) {
	raw := []byte(data)
	if len(data) > 0 && data[0] == '@' {
		b, err := os.ReadFile(data[1:])
		if err != nil {
			return nil, err
		}
		raw = b
	}
	var item map[string]any
	if err := json.Unmarshal(raw, &item); err != nil {
		return nil, fmt.Errorf("parse data: %w", err)
	}
	return item, nil
}
