// Package api exposes the workspace store over gRPC.
package api

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/matheus3301/teamspace/internal/bus"
	"github.com/matheus3301/teamspace/internal/workspace"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	grpcstatus "google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

// PendingCounter reports outstanding delivery timers.
type PendingCounter interface {
	Pending() int
}

// WorkspaceService implements WorkspaceServiceServer on top of the store.
type WorkspaceService struct {
	workspaceName string
	backend       string
	startedAt     time.Time
	ws            *workspace.Workspace
	bus           *bus.Bus
	pending       PendingCounter
	logger        *zap.Logger
}

// NewWorkspaceService creates the service. pending may be nil.
func NewWorkspaceService(workspaceName, backend string, ws *workspace.Workspace, b *bus.Bus, pending PendingCounter, logger *zap.Logger) *WorkspaceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WorkspaceService{
		workspaceName: workspaceName,
		backend:       backend,
		startedAt:     time.Now(),
		ws:            ws,
		bus:           b,
		pending:       pending,
		logger:        logger,
	}
}

func (s *WorkspaceService) GetStatus(_ context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	counts := s.counts()
	resp := map[string]any{
		"workspace":     s.workspaceName,
		"backend":       s.backend,
		"startedAt":     s.startedAt,
		"uptimeMs":      time.Since(s.startedAt).Milliseconds(),
		"counts":        counts,
		"subscribers":   s.bus.Subscribers(),
		"droppedEvents": s.bus.Dropped(),
	}
	if s.pending != nil {
		resp["pendingDeliveries"] = s.pending.Pending()
	}
	return s.respond(resp)
}

func (s *WorkspaceService) List(_ context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	c, err := collection(req)
	if err != nil {
		return nil, err
	}
	items, err := s.ws.List(c)
	if err != nil {
		return nil, toStatus(err)
	}
	return s.respond(map[string]any{"collection": c, "items": items})
}

func (s *WorkspaceService) Upsert(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	c, err := collection(req)
	if err != nil {
		return nil, err
	}
	item := req.GetFields()["item"].GetStructValue()
	if item == nil {
		return nil, grpcstatus.Error(codes.InvalidArgument, "item is required")
	}
	data, err := protojson.Marshal(item)
	if err != nil {
		return nil, grpcstatus.Errorf(codes.InvalidArgument, "encode item: %v", err)
	}
	saved, err := s.ws.Upsert(ctx, c, data)
	if err != nil {
		return nil, toStatus(err)
	}
	return s.respond(map[string]any{"item": saved})
}

func (s *WorkspaceService) Delete(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	c, err := collection(req)
	if err != nil {
		return nil, err
	}
	args, err := required(req, "id")
	if err != nil {
		return nil, err
	}
	if err := s.ws.Delete(ctx, c, args["id"]); err != nil {
		return nil, toStatus(err)
	}
	return s.respond(map[string]any{"deleted": args["id"]})
}

func (s *WorkspaceService) SendMessage(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	args, err := required(req, "conversationId", "senderId")
	if err != nil {
		return nil, err
	}
	msg, err := s.ws.AddMessage(ctx, args["conversationId"], args["senderId"], str(req, "content"), workspace.MessageOptions{
		MeetingID: str(req, "meetingId"),
	})
	if err != nil {
		return nil, toStatus(err)
	}
	return s.respond(map[string]any{"message": msg})
}

func (s *WorkspaceService) MarkRead(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	args, err := required(req, "conversationId", "readerId")
	if err != nil {
		return nil, err
	}
	n, err := s.ws.MarkMessagesAsRead(ctx, args["conversationId"], args["readerId"])
	if err != nil {
		return nil, toStatus(err)
	}
	return s.respond(map[string]any{"updated": n})
}

func (s *WorkspaceService) JoinMeeting(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	args, err := required(req, "id")
	if err != nil {
		return nil, err
	}
	m, err := s.ws.JoinMeeting(ctx, args["id"])
	if err != nil {
		return nil, toStatus(err)
	}
	return s.respond(map[string]any{"meeting": m})
}

func (s *WorkspaceService) CancelMeeting(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	args, err := required(req, "id")
	if err != nil {
		return nil, err
	}
	m, err := s.ws.CancelMeeting(ctx, args["id"])
	if err != nil {
		return nil, toStatus(err)
	}
	return s.respond(map[string]any{"meeting": m})
}

// Reset drops all stored collections and reloads the seed dataset.
func (s *WorkspaceService) Reset(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	if err := s.ws.Reset(ctx); err != nil {
		return nil, toStatus(err)
	}
	s.logger.Warn("workspace reset", zap.String("workspace", s.workspaceName))
	return s.respond(map[string]any{"counts": s.counts()})
}

// Watch streams bus events whose kind starts with the requested namespace.
// An empty namespace streams everything.
func (s *WorkspaceService) Watch(req *structpb.Struct, stream grpc.ServerStreamingServer[structpb.Struct]) error {
	ch, unsub := s.bus.Subscribe(str(req, "namespace"), 256)
	defer unsub()

	for {
		select {
		case evt := <-ch:
			env, err := toStruct(map[string]any{
				"eventId":          uuid.New().String(),
				"workspace":        s.workspaceName,
				"occurredAtUnixMs": evt.Timestamp.UnixMilli(),
				"kind":             evt.Kind,
				"payload":          evt.Payload,
			})
			if err != nil {
				s.logger.Warn("drop unencodable event", zap.String("kind", evt.Kind), zap.Error(err))
				continue
			}
			if err := stream.Send(env); err != nil {
				return err
			}
		case <-stream.Context().Done():
			return nil
		}
	}
}

func (s *WorkspaceService) counts() map[string]int {
	counts := make(map[string]int)
	for c, n := range s.ws.Counts() {
		counts[string(c)] = n
	}
	return counts
}

func (s *WorkspaceService) respond(v any) (*structpb.Struct, error) {
	out, err := toStruct(v)
	if err != nil {
		s.logger.Error("encode response", zap.Error(err))
		return nil, grpcstatus.Errorf(codes.Internal, "encode response: %v", err)
	}
	return out, nil
}

func collection(req *structpb.Struct) (workspace.Collection, error) {
	name := str(req, "collection")
	c, ok := workspace.ParseCollection(name)
	if !ok {
		return "", grpcstatus.Errorf(codes.InvalidArgument, "unknown collection %q", name)
	}
	return c, nil
}
