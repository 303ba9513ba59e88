package cloudclient

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/closetsync/internal/common"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
)

// ServiceName is the health-checked service registered by the cloud node.
const ServiceName = common.HealthServiceName

// ErrUnavailable reports that the cloud node is not serving.
var ErrUnavailable = errors.New("cloud node unavailable")

// Health probes the cloud node's gRPC health service.
type Health struct {
	conn   *grpc.ClientConn
	client healthpb.HealthClient
}

// NewHealth prepares a health client for addr. No connection is made until
// the first Ping.
func NewHealth(addr string) (*Health, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, err
	}
	return &Health{conn: conn, client: healthpb.NewHealthClient(conn)}, nil
}

// Ping returns nil when the cloud node reports SERVING.
func (h *Health) Ping(ctx context.Context) error {
	resp, err := h.client.Check(ctx, &healthpb.HealthCheckRequest{Service: ServiceName})
	if err != nil {
		return mapError(err)
	}
	if resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
		return ErrUnavailable
	}
	return nil
}

func (h *Health) Close() error {
	return h.conn.Close()
}

func mapError(err error) error {
	if err == nil {
		return nil
	}
	st, _ := status.FromError(err)
	switch st.Code() {
	case codes.Unauthenticated, codes.PermissionDenied:
		return common.ErrorUnauthorized
	case codes.Unavailable, codes.DeadlineExceeded, codes.NotFound:
		return ErrUnavailable
	default:
		return fmt.Errorf("rpc error: %w", err)
	}
}
