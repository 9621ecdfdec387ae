package link_test

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/mock/gomock"

	"github.com/chaz8081/iot-peripheral/internal/ble/attr"
	"github.com/chaz8081/iot-peripheral/internal/ble/link"
	"github.com/chaz8081/iot-peripheral/internal/ble/link/mock_link"
)

func TestAckReleaseSendsOnce(t *testing.T) {
	ctrl := gomock.NewController(t)
	req := mock_link.NewMockRequest(ctrl)
	reply := mock_link.NewMockReply(ctrl)
	req.EXPECT().Accept().Return(reply, nil).Times(1)
	reply.EXPECT().Send(gomock.Any()).Return(nil).Times(1)

	ack := link.Acquire(req)
	if err := ack.Release(context.Background()); err != nil {
		t.Fatalf("Release() error = %v", err)
	}
	if !ack.Released() {
		t.Error("Released() = false after Release")
	}
	if err := ack.Release(context.Background()); !errors.Is(err, link.ErrAlreadyAcked) {
		t.Errorf("second Release() error = %v, want ErrAlreadyAcked", err)
	}
}

func TestAckReleaseOnEarlyReturn(t *testing.T) {
	ctrl := gomock.NewController(t)
	req := mock_link.NewMockRequest(ctrl)
	reply := mock_link.NewMockReply(ctrl)
	req.EXPECT().Accept().Return(reply, nil)
	reply.EXPECT().Send(gomock.Any()).Return(nil)

	handle := func() (err error) {
		ack := link.Acquire(req)
		defer func() {
			if rerr := ack.Release(context.Background()); rerr != nil {
				err = rerr
			}
		}()
		return errors.New("handler bailed out")
	}
	if err := handle(); err == nil || err.Error() != "handler bailed out" {
		t.Errorf("handle() error = %v", err)
	}
}

func TestAckAcceptFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	req := mock_link.NewMockRequest(ctrl)
	req.EXPECT().Accept().Return(nil, link.ErrDisconnected)
	req.EXPECT().Handle().Return(attr.Handle(9)).AnyTimes()

	ack := link.Acquire(req)
	err := ack.Release(context.Background())
	if !errors.Is(err, link.ErrDisconnected) {
		t.Errorf("Release() error = %v, want ErrDisconnected", err)
	}
	if err := ack.Release(context.Background()); !errors.Is(err, link.ErrAlreadyAcked) {
		t.Errorf("failed reply must not be retried, got %v", err)
	}
}

func TestAckSendFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	req := mock_link.NewMockRequest(ctrl)
	reply := mock_link.NewMockReply(ctrl)
	req.EXPECT().Accept().Return(reply, nil)
	req.EXPECT().Handle().Return(attr.Handle(13)).AnyTimes()
	reply.EXPECT().Send(gomock.Any()).Return(errors.New("tx queue full"))

	if err := link.Acquire(req).Release(context.Background()); err == nil {
		t.Error("Release() should report the send failure")
	}
}

func TestAckNilRequest(t *testing.T) {
	ack := link.Acquire(nil)
	if err := ack.Release(context.Background()); err != nil {
		t.Errorf("Release() error = %v", err)
	}
}

func TestRequestOf(t *testing.T) {
	ctrl := gomock.NewController(t)
	req := mock_link.NewMockRequest(ctrl)

	cases := []struct {
		name string
		ev   link.Event
		want link.Request
	}{
		{"read", link.Read{Request: req}, req},
		{"write", link.Write{Request: req}, req},
		{"other", link.Other{Request: req}, req},
		{"disconnected", link.Disconnected{Reason: link.ReasonRemoteTerminated}, nil},
	}
	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			if got := link.RequestOf(tt.ev); got != tt.want {
				t.Errorf("RequestOf() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestReasonString(t *testing.T) {
	if got := link.ReasonRemoteTerminated.String(); got != "remote user terminated" {
		t.Errorf("String() = %q", got)
	}
	if got := link.Reason(0x3e).String(); got != "reason 0x3e" {
		t.Errorf("String() = %q", got)
	}
}
