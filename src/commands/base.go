package commands

import (
	"strings"
	"sync"

	"trader-gateway/src/models"
	"trader-gateway/src/protocol"
)

// -----------------------------------------------------------------------------

// BaseCommand carries what every command shares. The result is written at
// most once and signalled by closing the done channel.
type BaseCommand struct {
	commandType   protocol.CommandType
	params        []string
	waitForResult bool
	summarize     func(models.MDecodedFrame) string

	once   sync.Once
	done   chan struct{}
	mu     sync.RWMutex
	result models.MCommandResult
	has    bool
}

// -----------------------------------------------------------------------------

func newBaseCommand(t protocol.CommandType, wait bool, params ...string) *BaseCommand {
	return &BaseCommand{
		commandType:   t,
		params:        params,
		waitForResult: wait,
		done:          make(chan struct{}),
	}
}

// -----------------------------------------------------------------------------

func (b *BaseCommand) Type() protocol.CommandType { return b.commandType }
func (b *BaseCommand) Name() string               { return string(b.commandType) }
func (b *BaseCommand) WaitForResult() bool        { return b.waitForResult }

// Params returns a copy.
func (b *BaseCommand) Params() []string {
	out := make([]string, len(b.params))
	copy(out, b.params)
	return out
}

// -----------------------------------------------------------------------------

// Encode renders the command line. Blank parameters are skipped.
func (b *BaseCommand) Encode() string {
	var sb strings.Builder
	sb.WriteString(b.Name())
	for _, p := range b.params {
		if strings.TrimSpace(p) == "" {
			continue
		}
		sb.WriteByte(' ')
		sb.WriteString(p)
	}
	sb.WriteString("\r\n")
	return sb.String()
}

func (b *BaseCommand) Bytes() []byte {
	return []byte(b.Encode())
}

func (b *BaseCommand) String() string {
	return strings.TrimSuffix(b.Encode(), "\r\n")
}

// -----------------------------------------------------------------------------

// OnResponse turns a correlated frame into the command result.
func (b *BaseCommand) OnResponse(event models.MResponseEvent) {
	frame := event.Frame
	result := models.MCommandResult{
		Success: !frame.IsError(),
		Message: frame.Status,
		Frame:   &frame,
	}
	if result.Success && b.summarize != nil {
		result.Message = b.summarize(frame)
	}
	b.Resolve(result)
}

// -----------------------------------------------------------------------------

func (b *BaseCommand) Resolve(result models.MCommandResult) bool {
	resolved := false
	b.once.Do(func() {
		b.mu.Lock()
		b.result = result
		b.has = true
		b.mu.Unlock()
		close(b.done)
		resolved = true
	})
	return resolved
}

func (b *BaseCommand) Done() <-chan struct{} {
	return b.done
}

func (b *BaseCommand) Result() (models.MCommandResult, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.result, b.has
}
