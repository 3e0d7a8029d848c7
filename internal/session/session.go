package session

import (
	"sync"

	"github.com/core-coin/custos/internal/models"
)

// Op is a wallet operation that needs the user's key.
type Op string

const (
	OpBalance Op = "wallet_balance"
	OpAddress Op = "get_address"
	OpSend    Op = "send_iota_to_address"
	OpDonate  Op = "donate"
)

// State of a user's conversation with the bot.
type State int

const (
	StateUnregistered State = iota
	StateWalletCreated
	StateAwaitingKey
)

func (s State) String() string {
	switch s {
	case StateUnregistered:
		return "UNREGISTERED"
	case StateWalletCreated:
		return "WALLET_CREATED"
	case StateAwaitingKey:
		return "AWAITING_KEY"
	default:
		return "UNKNOWN"
	}
}

// Machine keeps the outstanding key challenge of every user in memory. The
// persisted registration status comes from the repository; the challenge is
// lost on restart and the user simply repeats the command.
type Machine struct {
	mu      sync.Mutex
	pending map[int64]Op

	users *UserMutex
}

func NewMachine() *Machine {
	return &Machine{
		pending: make(map[int64]Op),
		users:   NewUserMutex(),
	}
}

// State combines the persisted status with the outstanding challenge.
func (m *Machine) State(userID int64, status models.UserStatus) State {
	if status != models.StatusWalletCreated {
		return StateUnregistered
	}
	if _, ok := m.Pending(userID); ok {
		return StateAwaitingKey
	}
	return StateWalletCreated
}

// Await records that the next plain text of userID answers the challenge for
// op. An outstanding challenge is replaced; the previous op is returned.
func (m *Machine) Await(userID int64, op Op) (Op, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	prev, ok := m.pending[userID]
	m.pending[userID] = op
	return prev, ok
}

// Pending returns the outstanding challenge of userID.
func (m *Machine) Pending(userID int64) (Op, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	op, ok := m.pending[userID]
	return op, ok
}

// Resolve clears the challenge of userID.
func (m *Machine) Resolve(userID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.pending, userID)
}

// Lock serializes the commands of userID. The returned func releases it.
func (m *Machine) Lock(userID int64) func() {
	m.users.Lock(userID)
	return func() { m.users.Unlock(userID) }
}
