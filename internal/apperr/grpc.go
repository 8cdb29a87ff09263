package apperr

import (
	"errors"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ErrorDomain is reported in the ErrorInfo detail of gRPC statuses.
const ErrorDomain = "squad-service"

func GRPCCode(err error) codes.Code {
	switch KindOf(err) {
	case KindInvalidArgument:
		return codes.InvalidArgument
	case KindNotFound:
		return codes.NotFound
	case KindConflict:
		return codes.AlreadyExists
	case KindPermissionDenied:
		return codes.PermissionDenied
	case KindFailedPrecondition:
		return codes.FailedPrecondition
	case KindUnavailable:
		return codes.Unavailable
	}
	return codes.Internal
}

// GRPCStatus converts err into a status carrying the reason code as an
// ErrorInfo detail.
func GRPCStatus(err error) *status.Status {
	var typed *Error
	if !errors.As(err, &typed) {
		return status.New(codes.Internal, err.Error())
	}
	st := status.New(GRPCCode(err), typed.Message)
	withDetails, detailErr := st.WithDetails(&errdetails.ErrorInfo{
		Reason: typed.Reason,
		Domain: ErrorDomain,
	})
	if detailErr != nil {
		return st
	}
	return withDetails
}
