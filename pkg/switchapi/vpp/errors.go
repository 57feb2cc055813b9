package vpp

import (
	"errors"
	"fmt"
	"strings"

	"github.com/veesix-networks/osvlan/pkg/switchapi"
	"go.fd.io/govpp/api"
)

// VPP api_errno values the driver distinguishes.
const (
	errInvalidSwIfIndex api.VPPApiError = -2
	errNoSuchEntry      api.VPPApiError = -6
	errInvalidValue     api.VPPApiError = -7
	errSubifExists      api.VPPApiError = -56
	errBDAlreadyExists  api.VPPApiError = -119
	errBDNotModifiable  api.VPPApiError = -120
	errBDInUse          api.VPPApiError = -121
)

func vppStatus(err error) switchapi.Status {
	var vppErr api.VPPApiError
	if errors.As(err, &vppErr) {
		switch vppErr {
		case errInvalidSwIfIndex:
			return switchapi.StatusInvalidHandle
		case errNoSuchEntry:
			return switchapi.StatusItemNotFound
		case errInvalidValue:
			return switchapi.StatusInvalidParameter
		case errSubifExists, errBDAlreadyExists:
			return switchapi.StatusItemAlreadyExists
		case errBDNotModifiable, errBDInUse:
			return switchapi.StatusResourceInUse
		}
		return switchapi.StatusHWFailure
	}
	if strings.Contains(err.Error(), "already exists") {
		return switchapi.StatusItemAlreadyExists
	}
	return switchapi.StatusFailure
}

// wrap attaches the switch status matching a VPP API error.
func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %v: %w", op, err, vppStatus(err))
}
