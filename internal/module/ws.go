package module

import (
	"fmt"
	"sync"

	"github.com/gorilla/websocket"

	"quill/internal/vm"
)

// wsTable tracks open client connections by handle so scripts can pass an
// opaque id between connect/send/receive/close.
type wsTable struct {
	mu    sync.Mutex
	next  int
	conns map[string]*websocket.Conn
}

func (t *wsTable) add(conn *websocket.Conn) string {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.next++
	id := fmt.Sprintf("ws-%d", t.next)
	t.conns[id] = conn
	return id
}

func (t *wsTable) get(id string) (*websocket.Conn, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	conn, ok := t.conns[id]
	if !ok {
		return nil, fmt.Errorf("unknown websocket connection %s", id)
	}
	return conn, nil
}

func (t *wsTable) remove(id string) (*websocket.Conn, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	conn, ok := t.conns[id]
	if !ok {
		return nil, fmt.Errorf("unknown websocket connection %s", id)
	}
	delete(t.conns, id)
	return conn, nil
}

func wsModule() *Module {
	table := &wsTable{conns: make(map[string]*websocket.Conn)}
	return &Module{
		Package: "ext",
		Name:    "ws",
		Exports: map[string]vm.Value{
			"connect": &vm.NativeFunction{
				Name:  "connect",
				Arity: 1,
				Function: func(args []vm.Value) (vm.Value, error) {
					url := vm.ToString(args[0])
					conn, _, err := websocket.DefaultDialer.Dial(url, nil)
					if err != nil {
						return nil, fmt.Errorf("ws connect %s: %w", url, err)
					}
					return table.add(conn), nil
				},
			},
			"send": &vm.NativeFunction{
				Name:  "send",
				Arity: 2,
				Function: func(args []vm.Value) (vm.Value, error) {
					conn, err := table.get(vm.ToString(args[0]))
					if err != nil {
						return nil, err
					}
					if err := conn.WriteMessage(websocket.TextMessage, []byte(vm.ToString(args[1]))); err != nil {
						return nil, fmt.Errorf("ws send: %w", err)
					}
					return true, nil
				},
			},
			"receive": &vm.NativeFunction{
				Name:  "receive",
				Arity: 1,
				Function: func(args []vm.Value) (vm.Value, error) {
					conn, err := table.get(vm.ToString(args[0]))
					if err != nil {
						return nil, err
					}
					_, data, err := conn.ReadMessage()
					if err != nil {
						return nil, fmt.Errorf("ws receive: %w", err)
					}
					return string(data), nil
				},
			},
			"close": &vm.NativeFunction{
				Name:  "close",
				Arity: 1,
				Function: func(args []vm.Value) (vm.Value, error) {
					conn, err := table.remove(vm.ToString(args[0]))
					if err != nil {
						return nil, err
					}
					return conn.Close() == nil, nil
				},
			},
		},
	}
}
