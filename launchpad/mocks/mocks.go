// Package mocks provides hand-rolled fakes for the kalpsdk transaction
// context used by the launchpad tests. Only the methods the contract
// exercises are stubbed; the embedded interfaces satisfy the remainder and
// panic if an unstubbed method is ever reached.
package mocks

import (
	"sync"

	"github.com/hyperledger/fabric-chaincode-go/pkg/cid"
	"github.com/p2eengineering/kalp-sdk-public/kalpsdk"
)

type TransactionContext struct {
	kalpsdk.TransactionContextInterface

	GetStateStub           func(string) ([]byte, error)
	PutStateWithoutKYCStub func(string, []byte) error
	SetEventStub           func(string, []byte) error

	mu             sync.Mutex
	clientIdentity cid.ClientIdentity
	events         map[string][]byte
}

func (c *TransactionContext) GetState(key string) ([]byte, error) {
	if c.GetStateStub != nil {
		return c.GetStateStub(key)
	}
	return nil, nil
}

func (c *TransactionContext) PutStateWithoutKYC(key string, value []byte) error {
	if c.PutStateWithoutKYCStub != nil {
		return c.PutStateWithoutKYCStub(key, value)
	}
	return nil
}

func (c *TransactionContext) SetEvent(name string, payload []byte) error {
	c.mu.Lock()
	if c.events == nil {
		c.events = map[string][]byte{}
	}
	c.events[name] = payload
	c.mu.Unlock()

	if c.SetEventStub != nil {
		return c.SetEventStub(name, payload)
	}
	return nil
}

// Events returns the payload of the last emitted event per name.
func (c *TransactionContext) Events() map[string][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()

	events := make(map[string][]byte, len(c.events))
	for name, payload := range c.events {
		events[name] = payload
	}
	return events
}

func (c *TransactionContext) GetClientIdentity() cid.ClientIdentity {
	return c.clientIdentity
}

func (c *TransactionContext) GetClientIdentityReturns(clientIdentity cid.ClientIdentity) {
	c.clientIdentity = clientIdentity
}

type ClientIdentity struct {
	cid.ClientIdentity

	id    string
	idErr error
}

func (c *ClientIdentity) GetID() (string, error) {
	return c.id, c.idErr
}

func (c *ClientIdentity) GetIDReturns(id string, err error) {
	c.id = id
	c.idErr = err
}
