package grpc_control

import (
	"context"
	"encoding/json"
	"fmt"

	"trader-gateway/src/commands"
	"trader-gateway/src/interfaces"
	"trader-gateway/src/logger"
	"trader-gateway/src/models"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

// Gateway is what the control API needs from the command dispatcher.
type Gateway interface {
	Submit(cmd interfaces.ICommand) error
	SubmitOrder(cmd *commands.OrderCommand) error
	Status() models.MDispatcherStatus
	Close(force bool) error
}

// ControlService implements ControlServer on top of the dispatcher.
type ControlService struct {
	Gateway Gateway
	Logger  *logger.Logger
}

func NewControlService(gateway Gateway, log *logger.Logger) *ControlService {
	return &ControlService{Gateway: gateway, Logger: log}
}

// -----------------------------------------------------------------------------

func (s *ControlService) GetStatus(ctx context.Context, req *emptypb.Empty) (*structpb.Struct, error) {
	return toStruct(s.Gateway.Status())
}

// -----------------------------------------------------------------------------

// Submit takes the generic command request shape plus an optional "wait"
// flag. Without wait it answers as soon as the command is queued.
func (s *ControlService) Submit(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var cmdReq models.MCommandRequest
	if err := fromStruct(req, &cmdReq); err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "invalid command request: %v", err)
	}
	if cmdReq.Command == "" {
		return nil, status.Error(codes.InvalidArgument, "command is required")
	}

	cmd, err := commands.FromRequest(cmdReq)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	if order, ok := cmd.(*commands.OrderCommand); ok {
		err = s.Gateway.SubmitOrder(order)
	} else {
		err = s.Gateway.Submit(cmd)
	}
	if err != nil {
		s.Logger.Error("gRPC: Failed to submit %s: %v", cmd.Name(), err)
		return nil, status.Error(codes.Unavailable, err.Error())
	}

	wait := false
	if v, ok := req.GetFields()["wait"]; ok {
		wait = v.GetBoolValue()
	}
	if !wait {
		return toStruct(map[string]interface{}{
			"success": true,
			"message": fmt.Sprintf("%s submitted", cmd.Name()),
		})
	}

	select {
	case <-cmd.Done():
	case <-ctx.Done():
		return nil, status.FromContextError(ctx.Err()).Err()
	}
	res, _ := cmd.Result()
	return toStruct(res)
}

// -----------------------------------------------------------------------------

// Close drops the trading server connection. Without "force" it is refused
// while a command waits for its response.
func (s *ControlService) Close(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	force := false
	if v, ok := req.GetFields()["force"]; ok {
		force = v.GetBoolValue()
	}

	if err := s.Gateway.Close(force); err != nil {
		return toStruct(map[string]interface{}{"success": false, "message": err.Error()})
	}
	s.Logger.Info("gRPC: Connection closed (force: %v)", force)
	return toStruct(map[string]interface{}{"success": true, "message": "connection closed"})
}

// -----------------------------------------------------------------------------

// toStruct converts any JSON-marshalable value through its JSON form.
func toStruct(v interface{}) (*structpb.Struct, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	var m map[string]interface{}
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	out, err := structpb.NewStruct(m)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	return out, nil
}

func fromStruct(in *structpb.Struct, out interface{}) error {
	data, err := json.Marshal(in.AsMap())
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}
