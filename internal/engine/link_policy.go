package engine

import (
	"errors"
	"fmt"
	"strings"

	"github.com/limit-importer/backend/internal/hardware"
)

// LinkPolicy decides when the hardware is tracking every channel to
// channel 0. Firmware differs in how it reports this, so the decision is
// injectable.
type LinkPolicy interface {
	// Prelinked is asked once per side before any channel is written.
	Prelinked(limit hardware.Limit) bool
	// IsLinkSignal classifies an error returned by a channel write.
	IsLinkSignal(err error) bool
}

// CapabilityPolicy trusts the adapter's LinkReporter and the
// ErrChannelsLinked sentinel.
type CapabilityPolicy struct{}

func (CapabilityPolicy) Prelinked(limit hardware.Limit) bool {
	r, ok := limit.(hardware.LinkReporter)
	return ok && r.ChannelsLinked()
}

func (CapabilityPolicy) IsLinkSignal(err error) bool {
	return errors.Is(err, hardware.ErrChannelsLinked)
}

// SentinelPolicy ignores the capability query and reacts to the sentinel only.
type SentinelPolicy struct{}

func (SentinelPolicy) Prelinked(hardware.Limit) bool { return false }

func (SentinelPolicy) IsLinkSignal(err error) bool {
	return errors.Is(err, hardware.ErrChannelsLinked)
}

// NoLinkPolicy treats every channel independently; link signals count as failures.
type NoLinkPolicy struct{}

func (NoLinkPolicy) Prelinked(hardware.Limit) bool { return false }

func (NoLinkPolicy) IsLinkSignal(error) bool { return false }

// LinkPolicyByName maps a configuration value to a policy.
func LinkPolicyByName(name string) (LinkPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "capability", "auto":
		return CapabilityPolicy{}, nil
	case "sentinel":
		return SentinelPolicy{}, nil
	case "off", "none":
		return NoLinkPolicy{}, nil
	}
	return nil, fmt.Errorf("unknown link detection policy %q", name)
}
