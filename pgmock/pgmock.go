// Package pgmock provides the ability to mock a PostgreSQL server. It is
// only intended for use in tests: a Script plays a fixed sequence of
// expected frontend messages and canned backend replies against a real
// client connection.
package pgmock

import (
	"fmt"
	"io"
	"net"
	"reflect"

	"github.com/pgsql-go/pgsql/pgproto"
)

type Server struct {
	ln         net.Listener
	controller Controller
}

func NewServer(controller Controller) (*Server, error) {
	ln, err := net.Listen("tcp", "127.0.0.1:")
	if err != nil {
		return nil, err
	}

	return &Server{
		ln:         ln,
		controller: controller,
	}, nil
}

func (s *Server) Addr() net.Addr {
	return s.ln.Addr()
}

// ServeOne accepts a single connection, runs the controller against it and
// closes the listener.
func (s *Server) ServeOne() error {
	conn, err := s.ln.Accept()
	if err != nil {
		return err
	}
	defer conn.Close()

	s.Close()

	return s.controller.Serve(pgproto.NewBackend(conn, conn))
}

func (s *Server) Close() error {
	return s.ln.Close()
}

type Controller interface {
	Serve(backend *pgproto.Backend) error
}

type Step interface {
	Step(*pgproto.Backend) error
}

type Script struct {
	Steps []Step
}

func (s *Script) Run(backend *pgproto.Backend) error {
	for _, step := range s.Steps {
		if err := step.Step(backend); err != nil {
			return err
		}
	}

	return nil
}

func (s *Script) Serve(backend *pgproto.Backend) error {
	return s.Run(backend)
}

func (s *Script) Step(backend *pgproto.Backend) error {
	return s.Run(backend)
}

type expectMessageStep struct {
	want pgproto.FrontendMessage
	any  bool
}

func (e *expectMessageStep) Step(backend *pgproto.Backend) error {
	msg, err := backend.Receive()
	if err != nil {
		return err
	}

	if e.any && reflect.TypeOf(msg) == reflect.TypeOf(e.want) {
		return nil
	}

	if !reflect.DeepEqual(msg, e.want) {
		return fmt.Errorf("msg => %#v, e.want => %#v", msg, e.want)
	}

	return nil
}

type expectStartupMessageStep struct {
	want *pgproto.StartupMessage
	any  bool
}

func (e *expectStartupMessageStep) Step(backend *pgproto.Backend) error {
	msg, err := backend.ReceiveStartupMessage()
	if err != nil {
		return err
	}

	if e.any {
		return nil
	}

	if !reflect.DeepEqual(msg, e.want) {
		return fmt.Errorf("msg => %#v, e.want => %#v", msg, e.want)
	}

	return nil
}

// ExpectMessage fails the script unless the next frontend message equals
// want.
func ExpectMessage(want pgproto.FrontendMessage) Step {
	return expectMessage(want, false)
}

// ExpectAnyMessage fails the script unless the next frontend message has
// the same type as want; its contents are not compared.
func ExpectAnyMessage(want pgproto.FrontendMessage) Step {
	return expectMessage(want, true)
}

func expectMessage(want pgproto.FrontendMessage, any bool) Step {
	if want, ok := want.(*pgproto.StartupMessage); ok {
		return &expectStartupMessageStep{want: want, any: any}
	}

	return &expectMessageStep{want: want, any: any}
}

type sendMessageStep struct {
	msg pgproto.BackendMessage
}

func (e *sendMessageStep) Step(backend *pgproto.Backend) error {
	return backend.Send(e.msg)
}

// SendMessage writes msg to the client.
func SendMessage(msg pgproto.BackendMessage) Step {
	return &sendMessageStep{msg: msg}
}

type waitForCloseMessageStep struct{}

func (e *waitForCloseMessageStep) Step(backend *pgproto.Backend) error {
	for {
		msg, err := backend.Receive()
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil
		} else if err != nil {
			return err
		}

		if _, ok := msg.(*pgproto.Terminate); ok {
			return nil
		}
	}
}

// WaitForClose consumes messages until the client sends Terminate or
// disconnects.
func WaitForClose() Step {
	return &waitForCloseMessageStep{}
}

// AcceptUnauthenticatedConnRequestSteps is the handshake of a server that
// requires no authentication.
func AcceptUnauthenticatedConnRequestSteps() []Step {
	return []Step{
		ExpectAnyMessage(&pgproto.StartupMessage{ProtocolVersion: pgproto.ProtocolVersionNumber, Parameters: map[string]string{}}),
		SendMessage(&pgproto.Authentication{Type: pgproto.AuthTypeOk}),
		SendMessage(&pgproto.BackendKeyData{ProcessID: 0, SecretKey: 0}),
		SendMessage(&pgproto.ReadyForQuery{TxStatus: 'I'}),
	}
}
