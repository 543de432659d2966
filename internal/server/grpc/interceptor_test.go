package grpc

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"google.golang.org/grpc"
)

type recordingLogger struct {
	nopLogger
	msgs []string
	args [][]any
}

func (r *recordingLogger) Debug(_ context.Context, msg string, args ...any) {
	r.msgs = append(r.msgs, msg)
	r.args = append(r.args, args)
}

func TestLoggingInterceptor_PassesThrough(t *testing.T) {
	rl := &recordingLogger{}
	s := &GRPCServer{logger: rl}

	info := &grpc.UnaryServerInfo{FullMethod: "/grpc.health.v1.Health/Check"}
	boom := errors.New("boom")

	resp, err := s.loggingInterceptor(context.Background(), "req", info, func(ctx context.Context, req interface{}) (interface{}, error) {
		return "resp", boom
	})

	assert.Equal(t, "resp", resp)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"grpc call"}, rl.msgs)
	assert.Contains(t, rl.args[0], "/grpc.health.v1.Health/Check")
	assert.Contains(t, rl.args[0], "Unknown")
}
