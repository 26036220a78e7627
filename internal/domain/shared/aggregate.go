package shared

// BaseAggregateRoot is embedded by runs and articles. Version backs the
// optimistic lock in the repositories; events queue until the caller that
// persisted the aggregate pulls and publishes them.
type BaseAggregateRoot struct {
	BaseEntity
	Version      int
	domainEvents []DomainEvent
}

// NewBaseAggregateRoot starts at version 1.
func NewBaseAggregateRoot() BaseAggregateRoot {
	return BaseAggregateRoot{BaseEntity: NewBaseEntity(), Version: 1}
}

// IncrementVersion bumps the version and the update timestamp.
func (a *BaseAggregateRoot) IncrementVersion() {
	a.Version++
	a.Touch()
}

func (a *BaseAggregateRoot) AddDomainEvent(event DomainEvent) {
	a.domainEvents = append(a.domainEvents, event)
}

func (a *BaseAggregateRoot) GetDomainEvents() []DomainEvent {
	return a.domainEvents
}

// ClearDomainEvents drops queued events without publishing them.
func (a *BaseAggregateRoot) ClearDomainEvents() {
	a.domainEvents = nil
}

// PullDomainEvents returns the queued events and clears them.
func (a *BaseAggregateRoot) PullDomainEvents() []DomainEvent {
	events := a.domainEvents
	a.domainEvents = nil
	return events
}
