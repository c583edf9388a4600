package audio

import (
	"fmt"
	"sync"

	"github.com/gordonklaus/portaudio"
)

// MicSource reads int16 mono frames from the default portaudio input
// device.
type MicSource struct {
	sampleRate int
	frameSize  int

	mu     sync.Mutex
	buf    []int16
	stream *portaudio.Stream
}

func NewMicSource(sampleRate, frameSize int) *MicSource {
	return &MicSource{
		sampleRate: sampleRate,
		frameSize:  frameSize,
		buf:        make([]int16, frameSize),
	}
}

func (m *MicSource) Open() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.stream != nil {
		return fmt.Errorf("microphone already open")
	}
	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("init portaudio: %w", err)
	}

	stream, err := portaudio.OpenDefaultStream(1, 0, float64(m.sampleRate), m.frameSize, m.buf)
	if err != nil {
		portaudio.Terminate()
		return fmt.Errorf("open input stream: %w", err)
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		portaudio.Terminate()
		return fmt.Errorf("start input stream: %w", err)
	}

	m.stream = stream
	return nil
}

func (m *MicSource) ReadFrame() ([]int16, error) {
	m.mu.Lock()
	stream := m.stream
	m.mu.Unlock()
	if stream == nil {
		return nil, fmt.Errorf("microphone not open")
	}

	if err := stream.Read(); err != nil {
		return nil, err
	}

	out := make([]int16, len(m.buf))
	copy(out, m.buf)
	return out, nil
}

func (m *MicSource) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.stream == nil {
		return nil
	}
	err := m.stream.Abort()
	if cerr := m.stream.Close(); err == nil {
		err = cerr
	}
	m.stream = nil
	portaudio.Terminate()
	return err
}
