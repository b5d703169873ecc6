package interfaces

type KeeperInterface interface {
	Init()
	Stop()
	Restore() error
	Persist() error
}
