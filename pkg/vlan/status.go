package vlan

import (
	"errors"
	"fmt"

	"github.com/veesix-networks/osvlan/pkg/sai"
	"github.com/veesix-networks/osvlan/pkg/switchapi"
)

var statusTable = map[switchapi.Status]sai.Status{
	switchapi.StatusSuccess:               sai.StatusSuccess,
	switchapi.StatusFailure:               sai.StatusFailure,
	switchapi.StatusInvalidParameter:      sai.StatusInvalidParameter,
	switchapi.StatusNoMemory:              sai.StatusNoMemory,
	switchapi.StatusItemNotFound:          sai.StatusItemNotFound,
	switchapi.StatusItemAlreadyExists:     sai.StatusItemAlreadyExists,
	switchapi.StatusInvalidHandle:         sai.StatusInvalidObjectID,
	switchapi.StatusUnsupportedType:       sai.StatusInvalidObjectType,
	switchapi.StatusResourceInUse:         sai.StatusObjectInUse,
	switchapi.StatusInsufficientResources: sai.StatusInsufficientResources,
	switchapi.StatusNotSupported:          sai.StatusNotSupported,
	switchapi.StatusHWFailure:             sai.StatusFailure,
	switchapi.StatusInvalidVlanID:         sai.StatusInvalidVlanID,
	switchapi.StatusPortInUse:             sai.StatusInvalidPortMember,
	switchapi.StatusUninitialized:         sai.StatusUninitialized,
}

// translateStatus maps a driver result onto the generic status space.
func translateStatus(err error) sai.Status {
	if err == nil {
		return sai.StatusSuccess
	}
	var hw switchapi.Status
	if errors.As(err, &hw) {
		if s, ok := statusTable[hw]; ok {
			return s
		}
		return sai.StatusFailure
	}
	var s sai.Status
	if errors.As(err, &s) {
		return s
	}
	return sai.StatusFailure
}

// statusError wraps the translated status of err with what was being done.
// The driver error is kept in the message but not in the chain, so
// sai.StatusOf sees exactly one status.
func statusError(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %v: %w", op, err, translateStatus(err))
}
