// Package chain talks to an execution environment gateway over
// JSON-RPC. This is part of the imperative shell: it implements the
// orchestrator's factory, environment, version-probe and ownership
// ports against a live environment.
//
// Address precomputation stays local and pure (see factory.go); only
// deployment, probing and ownership calls hit the gateway.
package chain

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/artpar/anchor/internal/core/domain"
)

// =============================================================================
// Error Types
// =============================================================================

var (
	// ErrGateway is returned for transport-level failures talking to
	// the gateway.
	ErrGateway = errors.New("gateway request failed")

	// ErrSaltCallerMismatch is returned when a salt's embedded caller
	// identity does not match the configured caller. The factory would
	// reject such a deployment, so it is refused locally.
	ErrSaltCallerMismatch = errors.New("salt does not embed the caller identity")
)

// RPCError is a structured error returned by the gateway.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("gateway error %d: %s", e.Code, e.Message)
}

// =============================================================================
// Client
// =============================================================================

// Client is a JSON-RPC client for one environment gateway. It
// satisfies the orchestrator's AddressFactory, Environment and
// VersionProber ports.
type Client struct {
	endpoint string
	factory  domain.Address
	http     *http.Client
	logger   *slog.Logger
	nextID   int
}

// NewClient creates a gateway client. factory is the deterministic
// factory's address on the environment, needed for local address
// precomputation.
func NewClient(endpoint string, factory domain.Address, timeout time.Duration, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		endpoint: endpoint,
		factory:  factory,
		http:     &http.Client{Timeout: timeout},
		logger:   logger.With("gateway", endpoint),
	}
}

// =============================================================================
// JSON-RPC Plumbing
// =============================================================================

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int    `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *RPCError       `json:"error"`
}

// call performs one JSON-RPC request. Failures propagate to the
// caller unmodified; nothing here retries.
func (c *Client) call(ctx context.Context, method string, result any, params ...any) error {
	c.nextID++
	body, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		ID:      c.nextID,
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return fmt.Errorf("failed to encode %s request: %w", method, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrGateway, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrGateway, method, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: %s: unexpected status %d", ErrGateway, method, resp.StatusCode)
	}

	var rpcResp rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&rpcResp); err != nil {
		return fmt.Errorf("%w: %s: invalid response: %v", ErrGateway, method, err)
	}
	if rpcResp.Error != nil {
		return rpcResp.Error
	}
	if result != nil {
		if err := json.Unmarshal(rpcResp.Result, result); err != nil {
			return fmt.Errorf("%w: %s: invalid result: %v", ErrGateway, method, err)
		}
	}
	return nil
}

// =============================================================================
// Environment Port
// =============================================================================

// CodePresent reports whether code exists at an address on the
// environment.
func (c *Client) CodePresent(ctx context.Context, address domain.Address) (bool, error) {
	var size int64
	if err := c.call(ctx, "env_codeSize", &size, address.String()); err != nil {
		return false, err
	}
	return size > 0, nil
}

// EnvironmentID returns the environment's identifier as reported by
// the gateway, used to cross-check the configured one.
func (c *Client) EnvironmentID(ctx context.Context) (string, error) {
	var id string
	if err := c.call(ctx, "env_id", &id); err != nil {
		return "", err
	}
	return id, nil
}

// =============================================================================
// Version Probe Port
// =============================================================================

// ProbeVersion instantiates the payload in the gateway's sandbox and
// returns the version string its version capability reports. The
// sandbox discards all state; nothing is broadcast.
func (c *Client) ProbeVersion(ctx context.Context, payload []byte) (string, error) {
	var version string
	if err := c.call(ctx, "sandbox_probeVersion", &version, hexPayload(payload)); err != nil {
		return "", err
	}
	return version, nil
}

// =============================================================================
// Address Factory Port
// =============================================================================

// DeployAt asks the factory to deploy the payload under salt and
// returns the resulting address. Irreversible.
func (c *Client) DeployAt(ctx context.Context, salt domain.Salt, payload []byte) (domain.Address, error) {
	var addr domain.Address
	if err := c.call(ctx, "factory_deploy", &addr, salt.String(), hexPayload(payload)); err != nil {
		return domain.Address{}, err
	}
	return addr, nil
}

// =============================================================================
// Ownership Port
// =============================================================================

// Instance binds ownership operations to one deployed address. It
// satisfies the orchestrator's OwnershipHandle port.
type Instance struct {
	client  *Client
	address domain.Address
}

// Instance returns an ownership handle for a deployed address.
func (c *Client) Instance(address domain.Address) *Instance {
	return &Instance{client: c, address: address}
}

// Owner returns the instance's current administrative owner.
func (i *Instance) Owner(ctx context.Context) (domain.Address, error) {
	var owner domain.Address
	if err := i.client.call(ctx, "env_owner", &owner, i.address.String()); err != nil {
		return domain.Address{}, err
	}
	return owner, nil
}

// TransferOwnership issues the privileged ownership-transfer call.
func (i *Instance) TransferOwnership(ctx context.Context, newOwner domain.Address) error {
	if err := i.client.call(ctx, "env_transferOwnership", nil, i.address.String(), newOwner.String()); err != nil {
		return err
	}
	i.client.logger.Info("ownership transfer submitted",
		"instance", i.address.String(),
		"new_owner", newOwner.String(),
	)
	return nil
}

func hexPayload(payload []byte) string {
	return "0x" + hex.EncodeToString(payload)
}
