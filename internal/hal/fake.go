package hal

import "sync"

// FakeValve records the last commanded position.
type FakeValve struct {
	mu     sync.Mutex
	opened bool
}

func (valve *FakeValve) GetId() string {
	return "valve"
}

func (valve *FakeValve) Open() error {
	valve.mu.Lock()
	defer valve.mu.Unlock()
	valve.opened = true
	return nil
}

func (valve *FakeValve) Close() error {
	valve.mu.Lock()
	defer valve.mu.Unlock()
	valve.opened = false
	return nil
}

func (valve *FakeValve) IsOpen() bool {
	valve.mu.Lock()
	defer valve.mu.Unlock()
	return valve.opened
}

// FakePumpDrive records the commanded state and lets tests advance the step
// counter explicitly.
type FakePumpDrive struct {
	ID string

	mu       sync.Mutex
	running  bool
	stepRate float64
	steps    uint64
}

func NewFakePumpDrive(id string) *FakePumpDrive {
	return &FakePumpDrive{ID: id}
}

func (drive *FakePumpDrive) GetId() string {
	return drive.ID
}

func (drive *FakePumpDrive) Start(stepRate float64) error {
	drive.mu.Lock()
	defer drive.mu.Unlock()
	drive.running = true
	drive.stepRate = stepRate
	return nil
}

func (drive *FakePumpDrive) Stop() error {
	drive.mu.Lock()
	defer drive.mu.Unlock()
	drive.running = false
	return nil
}

func (drive *FakePumpDrive) Steps() (uint64, error) {
	drive.mu.Lock()
	defer drive.mu.Unlock()
	return drive.steps, nil
}

func (drive *FakePumpDrive) IsRunning() bool {
	drive.mu.Lock()
	defer drive.mu.Unlock()
	return drive.running
}

// AdvanceSteps simulates drive movement.
func (drive *FakePumpDrive) AdvanceSteps(steps uint64) {
	drive.mu.Lock()
	defer drive.mu.Unlock()
	drive.steps += steps
}

// FakePulseCounter is a monotonic counter advanced by tests.
type FakePulseCounter struct {
	ID string

	mu    sync.Mutex
	count uint64
}

func (counter *FakePulseCounter) GetId() string {
	return counter.ID
}

func (counter *FakePulseCounter) Count() (uint64, error) {
	counter.mu.Lock()
	defer counter.mu.Unlock()
	return counter.count, nil
}

// Pulse advances the counter, simulating meter contacts.
func (counter *FakePulseCounter) Pulse(n uint64) {
	counter.mu.Lock()
	defer counter.mu.Unlock()
	counter.count += n
}
