// Package client talks to a running teamspaced over its Unix socket.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/matheus3301/teamspace/internal/api"
	"github.com/matheus3301/teamspace/internal/workspace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

// Client wraps the gRPC connection to the daemon.
type Client struct {
	conn      *grpc.ClientConn
	Workspace *api.WorkspaceServiceClient
}

// New dials the daemon's Unix domain socket.
func New(socketPath string) (*Client, error) {
	conn, err := grpc.NewClient(
		"unix://"+socketPath,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		return nil, fmt.Errorf("dial daemon: %w", err)
	}

	return &Client{
		conn:      conn,
		Workspace: api.NewWorkspaceServiceClient(conn),
	}, nil
}

// Close closes the gRPC connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

// Status is the daemon's self-description.
type Status struct {
	Workspace         string         `json:"workspace"`
	Backend           string         `json:"backend"`
	StartedAt         time.Time      `json:"startedAt"`
	UptimeMs          int64          `json:"uptimeMs"`
	Counts            map[string]int `json:"counts"`
	PendingDeliveries int            `json:"pendingDeliveries"`
	Subscribers       int            `json:"subscribers"`
	DroppedEvents     int64          `json:"droppedEvents"`
}

// Event is one bus event received from Watch.
type Event struct {
	EventID          string         `json:"eventId"`
	Workspace        string         `json:"workspace"`
	OccurredAtUnixMs int64          `json:"occurredAtUnixMs"`
	Kind             string         `json:"kind"`
	Payload          map[string]any `json:"payload"`
}

// OccurredAt returns the event time.
func (e Event) OccurredAt() time.Time {
	return time.UnixMilli(e.OccurredAtUnixMs)
}

func request(fields map[string]any) (*structpb.Struct, error) {
	req, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	return req, nil
}

type unaryCall func(context.Context, *structpb.Struct, ...grpc.CallOption) (*structpb.Struct, error)

// call runs a unary method and decodes the response field key into out.
// An empty key decodes the whole response.
func call(ctx context.Context, fn unaryCall, fields map[string]any, key string, out any) error {
	req, err := request(fields)
	if err != nil {
		return err
	}
	resp, err := fn(ctx, req)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if key == "" {
		return api.FromStruct(resp, out)
	}
	field, ok := resp.GetFields()[key]
	if !ok {
		return fmt.Errorf("response has no %q field", key)
	}
	data, err := protojson.Marshal(field)
	if err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return json.Unmarshal(data, out)
}

// GetStatus fetches the daemon status.
func (c *Client) GetStatus(ctx context.Context) (*Status, error) {
	var st Status
	if err := call(ctx, c.Workspace.GetStatus, nil, "", &st); err != nil {
		return nil, err
	}
	return &st, nil
}

// List decodes every entity of collection into out, which should point to a
// slice such as *[]workspace.Task or *[]map[string]any.
func (c *Client) List(ctx context.Context, collection string, out any) error {
	return call(ctx, c.Workspace.List, map[string]any{"collection": collection}, "items", out)
}

// Upsert adds or updates item and decodes the stored entity into out.
func (c *Client) Upsert(ctx context.Context, collection string, item map[string]any, out any) error {
	return call(ctx, c.Workspace.Upsert, map[string]any{"collection": collection, "item": item}, "item", out)
}

// Delete removes an entity.
func (c *Client) Delete(ctx context.Context, collection, id string) error {
	return call(ctx, c.Workspace.Delete, map[string]any{"collection": collection, "id": id}, "", nil)
}

// SendMessage posts a message to a conversation.
func (c *Client) SendMessage(ctx context.Context, conversationID, senderID, content string) (workspace.Message, error) {
	var msg workspace.Message
	err := call(ctx, c.Workspace.SendMessage, map[string]any{
		"conversationId": conversationID,
		"senderId":       senderID,
		"content":        content,
	}, "message", &msg)
	return msg, err
}

// MarkRead marks a conversation read for readerID and returns how many
// messages changed.
func (c *Client) MarkRead(ctx context.Context, conversationID, readerID string) (int, error) {
	var n int
	err := call(ctx, c.Workspace.MarkRead, map[string]any{
		"conversationId": conversationID,
		"readerId":       readerID,
	}, "updated", &n)
	return n, err
}

// JoinMeeting marks a meeting ongoing.
func (c *Client) JoinMeeting(ctx context.Context, id string) (workspace.Meeting, error) {
	var m workspace.Meeting
	err := call(ctx, c.Workspace.JoinMeeting, map[string]any{"id": id}, "meeting", &m)
	return m, err
}

// CancelMeeting cancels a meeting.
func (c *Client) CancelMeeting(ctx context.Context, id string) (workspace.Meeting, error) {
	var m workspace.Meeting
	err := call(ctx, c.Workspace.CancelMeeting, map[string]any{"id": id}, "meeting", &m)
	return m, err
}

// Reset restores the seed dataset and returns the new collection sizes.
func (c *Client) Reset(ctx context.Context) (map[string]int, error) {
	var counts map[string]int
	err := call(ctx, c.Workspace.Reset, nil, "counts", &counts)
	return counts, err
}

// Watch streams events under namespace to fn until ctx is done, the stream
// ends, or fn returns an error.
func (c *Client) Watch(ctx context.Context, namespace string, fn func(Event) error) error {
	req, err := request(map[string]any{"namespace": namespace})
	if err != nil {
		return err
	}
	stream, err := c.Workspace.Watch(ctx, req)
	if err != nil {
		return err
	}
	for {
		msg, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		var evt Event
		if err := api.FromStruct(msg, &evt); err != nil {
			return fmt.Errorf("decode event: %w", err)
		}
		if err := fn(evt); err != nil {
			return err
		}
	}
}
