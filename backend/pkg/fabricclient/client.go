package fabricclient

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hyperledger/fabric-sdk-go/pkg/common/providers/fab"
	"github.com/hyperledger/fabric-sdk-go/pkg/core/config"
	"github.com/hyperledger/fabric-sdk-go/pkg/gateway"
	"go.uber.org/zap"

	"github.com/regnet/property-registration/backend/pkg/common"
)

// Client submits and evaluates transactions against the named contracts of one chaincode.
type Client struct {
	gw        *gateway.Gateway
	network   *gateway.Network
	chaincode string
	contracts map[string]*gateway.Contract
}

func NewClient(cfg common.FabricConfig, contractNames ...string) (*Client, error) {
	wallet, err := gateway.NewFileSystemWallet(cfg.WalletPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create wallet: %w", err)
	}

	if !wallet.Exists(cfg.Identity) {
		err = populateWallet(wallet, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to populate wallet: %w", err)
		}
	}

	gw, err := gateway.Connect(
		gateway.WithConfig(config.FromFile(filepath.Clean(cfg.ConnectionProfile))),
		gateway.WithIdentity(wallet, cfg.Identity),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to gateway: %w", err)
	}

	network, err := gw.GetNetwork(cfg.Channel)
	if err != nil {
		gw.Close()
		return nil, fmt.Errorf("failed to get network %s: %w", cfg.Channel, err)
	}

	contracts := make(map[string]*gateway.Contract, len(contractNames))
	for _, name := range contractNames {
		contracts[name] = network.GetContractWithName(cfg.Chaincode, name)
	}

	zap.L().Info("connected to fabric gateway",
		zap.String("channel", cfg.Channel),
		zap.String("chaincode", cfg.Chaincode),
		zap.String("msp_id", cfg.MSPID),
	)
	return &Client{
		gw:        gw,
		network:   network,
		chaincode: cfg.Chaincode,
		contracts: contracts,
	}, nil
}

func (c *Client) contract(name string) (*gateway.Contract, error) {
	contract, ok := c.contracts[name]
	if !ok {
		return nil, fmt.Errorf("contract %s is not configured", name)
	}
	return contract, nil
}

// SubmitTransaction endorses and commits fn on the named contract.
func (c *Client) SubmitTransaction(contractName, fn string, args ...string) ([]byte, error) {
	contract, err := c.contract(contractName)
	if err != nil {
		return nil, err
	}
	return contract.SubmitTransaction(fn, args...)
}

// EvaluateTransaction queries fn on the named contract without committing.
func (c *Client) EvaluateTransaction(contractName, fn string, args ...string) ([]byte, error) {
	contract, err := c.contract(contractName)
	if err != nil {
		return nil, err
	}
	return contract.EvaluateTransaction(fn, args...)
}

// ChaincodeEvents streams chaincode events whose name matches filter until ctx is done.
func (c *Client) ChaincodeEvents(ctx context.Context, filter string) (<-chan *fab.CCEvent, error) {
	contract := c.network.GetContract(c.chaincode)
	reg, notifier, err := contract.RegisterEvent(filter)
	if err != nil {
		return nil, fmt.Errorf("failed to register event listener: %w", err)
	}

	out := make(chan *fab.CCEvent)
	go func() {
		defer close(out)
		defer contract.Unregister(reg)
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-notifier:
				if !ok {
					return
				}
				select {
				case out <- event:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

func (c *Client) Close() {
	c.gw.Close()
}

func populateWallet(wallet *gateway.Wallet, cfg common.FabricConfig) error {
	cert, err := os.ReadFile(filepath.Clean(cfg.CertPath))
	if err != nil {
		return err
	}

	key, err := os.ReadFile(filepath.Clean(cfg.KeyPath))
	if err != nil {
		return err
	}

	identity := gateway.NewX509Identity(cfg.MSPID, string(cert), string(key))

	return wallet.Put(cfg.Identity, identity)
}
