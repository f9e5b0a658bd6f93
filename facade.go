package etims

import (
	"fmt"

	etimscommand "github.com/goliatone/go-etims/command"
	etimsquery "github.com/goliatone/go-etims/query"
)

// Service is what the go-command handlers need; *operations.Facade provides it.
type Service interface {
	etimscommand.Submitter
	etimsquery.Reader
}

type Commands struct {
	Initialize           *etimscommand.InitializeCommand
	Submit               *etimscommand.SubmitCommand
	SendSalesTransaction *etimscommand.SendSalesTransactionCommand
}

type Queries struct {
	Select      *etimsquery.SelectQuery
	SelectSince *etimsquery.SelectSinceQuery
}

type Facade struct {
	service  Service
	commands Commands
	queries  Queries
}

func NewFacade(service Service) (*Facade, error) {
	if service == nil {
		return nil, fmt.Errorf("etims: command/query service is required")
	}
	facade := &Facade{service: service}
	facade.commands = Commands{
		Initialize:           etimscommand.NewInitializeCommand(service),
		Submit:               etimscommand.NewSubmitCommand(service),
		SendSalesTransaction: etimscommand.NewSendSalesTransactionCommand(service),
	}
	facade.queries = Queries{
		Select:      etimsquery.NewSelectQuery(service),
		SelectSince: etimsquery.NewSelectSinceQuery(service),
	}
	return facade, nil
}

func (f *Facade) Commands() Commands {
	if f == nil {
		return Commands{}
	}
	return f.commands
}

func (f *Facade) Queries() Queries {
	if f == nil {
		return Queries{}
	}
	return f.queries
}

func (f *Facade) Service() Service {
	if f == nil {
		return nil
	}
	return f.service
}
