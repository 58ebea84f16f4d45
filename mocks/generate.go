package mocks

//go:generate mockgen -destination=./mock_exchange.go -package=mocks github.com/quantrelay/quantrelay/internal/exchange Client,Adapter
//go:generate mockgen -destination=./mock_brokerage.go -package=mocks -mock_names=Client=MockBrokerageClient github.com/quantrelay/quantrelay/internal/brokerage Client,QuoteSource,SessionProvider
