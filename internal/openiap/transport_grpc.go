package openiap

import (
	"context"
	"crypto/tls"
	"net"
	"net/url"
	"sync"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/types/known/structpb"
)

// flowStreamMethod is the bidirectional stream every envelope travels on.
const flowStreamMethod = "/openiap.FlowService/SetupStream"

const (
	defaultGRPCPort       = "50051"
	defaultSecureGRPCPort = "443"
)

type grpcTransport struct {
	conn   *grpc.ClientConn
	stream *grpc.GenericClientStream[structpb.Struct, structpb.Struct]
	cancel context.CancelFunc

	sendMu    sync.Mutex
	closeOnce sync.Once
	closeErr  error
}

// dialGRPC connects to u and opens the flow stream. grpcs uses TLS with the
// URL host as server name; grpc is plaintext.
func dialGRPC(ctx context.Context, u *url.URL, jwt string, extra []grpc.DialOption) (*grpcTransport, error) {
	host := u.Hostname()
	target := u.Host
	if u.Port() == "" {
		port := defaultGRPCPort
		if u.Scheme == "grpcs" {
			port = defaultSecureGRPCPort
		}
		target = net.JoinHostPort(host, port)
	}

	creds := insecure.NewCredentials()
	if u.Scheme == "grpcs" {
		creds = credentials.NewTLS(&tls.Config{ServerName: host, MinVersion: tls.VersionTLS12})
	}
	opts := []grpc.DialOption{
		grpc.WithTransportCredentials(creds),
		grpc.WithBlock(),
		grpc.WithReturnConnectionError(),
	}
	opts = append(opts, extra...)

	dctx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()
	conn, err := grpc.DialContext(dctx, target, opts...)
	if err != nil {
		return nil, err
	}

	// The stream outlives the dial context; it ends with Close.
	sctx, scancel := context.WithCancel(context.Background())
	if jwt != "" {
		sctx = metadata.AppendToOutgoingContext(sctx, "authorization", "Bearer "+jwt)
	}
	cs, err := conn.NewStream(sctx, &grpc.StreamDesc{ServerStreams: true, ClientStreams: true}, flowStreamMethod)
	if err != nil {
		scancel()
		_ = conn.Close()
		return nil, err
	}
	return &grpcTransport{
		conn:   conn,
		stream: &grpc.GenericClientStream[structpb.Struct, structpb.Struct]{ClientStream: cs},
		cancel: scancel,
	}, nil
}

func (t *grpcTransport) Send(_ context.Context, env Envelope) error {
	msg, err := env.toStruct()
	if err != nil {
		return err
	}
	t.sendMu.Lock()
	defer t.sendMu.Unlock()
	return t.stream.Send(msg)
}

func (t *grpcTransport) Recv() (Envelope, error) {
	msg, err := t.stream.Recv()
	if err != nil {
		return Envelope{}, err
	}
	return envelopeFromStruct(msg), nil
}

// Close ends the stream and the connection. Later calls return the first result.
func (t *grpcTransport) Close() error {
	t.closeOnce.Do(func() {
		t.sendMu.Lock()
		_ = t.stream.CloseSend()
		t.sendMu.Unlock()
		t.cancel()
		t.closeErr = t.conn.Close()
	})
	return t.closeErr
}
