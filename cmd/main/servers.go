package main

import (
	"fmt"
	"net"

	"trader-gateway/src/config"
	"trader-gateway/src/dispatcher"
	pb "trader-gateway/src/grpc_control"
	"trader-gateway/src/interfaces"
	"trader-gateway/src/logger"

	"google.golang.org/grpc"
)

const defaultGrpcPort = 50051

// -----------------------------------------------------------------------------

// startServers orchestrates the startup of all server components
func startServers(
	srv interfaces.IDataExchanger,
	disp *dispatcher.CommandDispatcher,
	config *config.Config,
	appLogger *logger.Logger,
) *grpc.Server {

	// 1. FastAPIServer
	go func() {
		if err := srv.Start(); err != nil {
			appLogger.Error("Server failed: %v", err)
		}
	}()

	// 2. gRPC Control Server
	port := config.GrpcPort
	if port == 0 {
		port = defaultGrpcPort
	}
	lis, err := net.Listen("tcp", fmt.Sprintf("%s:%d", config.GrpcHost, port))
	if err != nil {
		appLogger.Critical("failed to listen for gRPC: %v", err)
		return nil
	}
	grpcServer := grpc.NewServer()
	grpcLogger := logger.NewLogger(config.MConfig, "ControlService")
	pb.RegisterControlServer(grpcServer, pb.NewControlService(disp, grpcLogger))

	go func() {
		appLogger.Info("Starting gRPC Control Server on %s", lis.Addr())
		if err := grpcServer.Serve(lis); err != nil {
			appLogger.Critical("failed to serve gRPC: %v", err)
		}
	}()
	return grpcServer
}
