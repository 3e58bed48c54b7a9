package main

import (
	"log"

	"github.com/hyperledger/fabric-chaincode-go/shim"
	"github.com/hyperledger/fabric-contract-api-go/contractapi"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/regnet/property-registration/backend/chaincode/regnet/chaincode"
)

func main() {
	viper.AutomaticEnv()
	viper.SetDefault("APP_ENV", "production")

	logger, err := zap.NewProduction()
	if viper.GetString("APP_ENV") == "development" {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		log.Panicf("Error creating logger: %v", err)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	userContract := chaincode.NewUserContract()
	regnetChaincode, err := contractapi.NewChaincode(userContract, chaincode.NewRegistrarContract())
	if err != nil {
		logger.Panic("error creating regnet chaincode", zap.Error(err))
	}
	regnetChaincode.Info.Title = "regnet"
	regnetChaincode.Info.Version = "1.0.0"
	regnetChaincode.DefaultContract = userContract.GetName()

	// Chaincode-as-a-service when the peer points at an external address.
	if address := viper.GetString("CHAINCODE_SERVER_ADDRESS"); address != "" {
		server := &shim.ChaincodeServer{
			CCID:     viper.GetString("CHAINCODE_ID"),
			Address:  address,
			CC:       regnetChaincode,
			TLSProps: shim.TLSProperties{Disabled: true},
		}
		logger.Info("starting chaincode server", zap.String("address", address))
		if err := server.Start(); err != nil {
			logger.Panic("error starting regnet chaincode server", zap.Error(err))
		}
		return
	}

	if err := regnetChaincode.Start(); err != nil {
		logger.Panic("error starting regnet chaincode", zap.Error(err))
	}
}
