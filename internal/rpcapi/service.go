package rpcapi

import (
	"context"

	"google.golang.org/grpc"
)

// serviceName is the RPC surface's fully-qualified name, used both in
// the service descriptor and in each method's full path.
const serviceName = "ssoauthority.v1.Auth"

// authServer is the interface every method handler below type-asserts
// srv against; Server implements it.
type authServer interface {
	ValidateToken(context.Context, *ValidateTokenRequest) (*ValidateTokenResponse, error)
	LoginWithEmail(context.Context, *LoginWithEmailRequest) (*LoginResponse, error)
	LoginWithFirebase(context.Context, *LoginWithFirebaseRequest) (*LoginResponse, error)
	RefreshToken(context.Context, *RefreshTokenRequest) (*LoginResponse, error)
	ExchangeSSOToken(context.Context, *ExchangeSSOTokenRequest) (*LoginResponse, error)
	Logout(context.Context, *LogoutRequest) (*LogoutResponse, error)
	GetSessions(context.Context, *GetSessionsRequest) (*GetSessionsResponse, error)
}

// serviceDesc hand-builds what protoc would otherwise generate: a method
// table grpc.Server dispatches incoming calls against by full method
// name ("/ssoauthority.v1.Auth/<Method>"). Each handler below follows the
// same decode-dispatch-encode shape generated code uses, just against
// the struct types in messages.go instead of protobuf messages.
var serviceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*authServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "ValidateToken", Handler: validateTokenHandler},
		{MethodName: "LoginWithEmail", Handler: loginWithEmailHandler},
		{MethodName: "LoginWithFirebase", Handler: loginWithFirebaseHandler},
		{MethodName: "RefreshToken", Handler: refreshTokenHandler},
		{MethodName: "ExchangeSSOToken", Handler: exchangeSSOTokenHandler},
		{MethodName: "Logout", Handler: logoutHandler},
		{MethodName: "GetSessions", Handler: getSessionsHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "ssoauthority.proto",
}

func validateTokenHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(ValidateTokenRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(authServer).ValidateToken(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + serviceName + "/ValidateToken"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(authServer).ValidateToken(ctx, req.(*ValidateTokenRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func loginWithEmailHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(LoginWithEmailRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(authServer).LoginWithEmail(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + serviceName + "/LoginWithEmail"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(authServer).LoginWithEmail(ctx, req.(*LoginWithEmailRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func loginWithFirebaseHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(LoginWithFirebaseRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(authServer).LoginWithFirebase(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + serviceName + "/LoginWithFirebase"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(authServer).LoginWithFirebase(ctx, req.(*LoginWithFirebaseRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func refreshTokenHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(RefreshTokenRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(authServer).RefreshToken(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + serviceName + "/RefreshToken"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(authServer).RefreshToken(ctx, req.(*RefreshTokenRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func exchangeSSOTokenHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(ExchangeSSOTokenRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(authServer).ExchangeSSOToken(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + serviceName + "/ExchangeSSOToken"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(authServer).ExchangeSSOToken(ctx, req.(*ExchangeSSOTokenRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func logoutHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(LogoutRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(authServer).Logout(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + serviceName + "/Logout"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(authServer).Logout(ctx, req.(*LogoutRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func getSessionsHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(GetSessionsRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(authServer).GetSessions(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + serviceName + "/GetSessions"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(authServer).GetSessions(ctx, req.(*GetSessionsRequest))
	}
	return interceptor(ctx, in, info, handler)
}
