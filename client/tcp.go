package client

import (
	"bufio"
	"fmt"
	"net"

	"github.com/virgilaudio/virgil/proto"
)

type TCPTransport struct {
	conn    net.Conn
	scanner *bufio.Scanner
}

func NewTCPTransport() *TCPTransport {
	return &TCPTransport{}
}

func (t *TCPTransport) Connect(addr string) error {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return err
	}
	t.conn = conn
	t.scanner = bufio.NewScanner(conn)
	return nil
}

func (t *TCPTransport) Send(msg proto.Message) error {
	data, err := proto.Marshal(msg)
	if err != nil {
		return err
	}
	data = append(data, '\n')
	_, err = t.conn.Write(data)
	return err
}

func (t *TCPTransport) Read() (proto.Message, error) {
	for t.scanner.Scan() {
		line := t.scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		msg, err := proto.Decode(line, false)
		if err != nil {
			return nil, err
		}
		return msg, nil
	}

	if err := t.scanner.Err(); err != nil {
		return nil, err
	}

	return nil, fmt.Errorf("connection closed")
}

func (t *TCPTransport) Close() error {
	return t.conn.Close()
}
