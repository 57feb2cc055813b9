package component

import (
	"github.com/veesix-networks/osvlan/pkg/config"
	"github.com/veesix-networks/osvlan/pkg/sai"
	"github.com/veesix-networks/osvlan/pkg/switchapi"
)

type Dependencies struct {
	Config *config.Config
	API    *sai.APIService
	Ports  switchapi.PortResolver
}
