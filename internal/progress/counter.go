package progress

import "sync"

// Counter tallies finished transfers. Bytes are counted from the last
// Update of each transfer, so a transfer cut short by an error adds
// nothing.
type Counter struct {
	NullReporter

	mu      sync.Mutex
	current int64
	files   int
	bytes   int64
	errors  int
}

// NewCounter creates an empty Counter
func NewCounter() *Counter {
	return &Counter{}
}

func (c *Counter) Start(string, int64) {
	c.mu.Lock()
	c.current = 0
	c.mu.Unlock()
}

func (c *Counter) Update(bytesTransferred int64) {
	c.mu.Lock()
	c.current = bytesTransferred
	c.mu.Unlock()
}

func (c *Counter) Complete() {
	c.mu.Lock()
	c.files++
	c.bytes += c.current
	c.current = 0
	c.mu.Unlock()
}

func (c *Counter) Error(error) {
	c.mu.Lock()
	c.errors++
	c.current = 0
	c.mu.Unlock()
}

// Files returns the number of completed transfers
func (c *Counter) Files() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.files
}

// Bytes returns the bytes moved by completed transfers
func (c *Counter) Bytes() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.bytes
}

// Errors returns the number of failed transfers
func (c *Counter) Errors() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.errors
}
