package core

import "fmt"

// TransferAttrs is the plain value form of a Transfer.
type TransferAttrs struct {
	ID          string
	Name        string
	Source      string
	Destination string
	Amount      float64
	Owner       string
}

// Transfer moves a constant amount between two accounts every month.
type Transfer struct {
	Observable
	id          string
	name        string
	source      string
	destination string
	amount      float64
	owner       string
}

func NewTransfer(a TransferAttrs) *Transfer {
	if a.ID == "" {
		a.ID = NewID()
	}
	return &Transfer{
		id:          a.ID,
		name:        a.Name,
		source:      a.Source,
		destination: a.Destination,
		amount:      a.Amount,
		owner:       a.Owner,
	}
}

func (t *Transfer) Attrs() TransferAttrs {
	return TransferAttrs{
		ID:          t.id,
		Name:        t.name,
		Source:      t.source,
		Destination: t.destination,
		Amount:      t.amount,
		Owner:       t.owner,
	}
}

func (t *Transfer) ID() string          { return t.id }
func (t *Transfer) Name() string        { return t.name }
func (t *Transfer) Source() string      { return t.source }
func (t *Transfer) Destination() string { return t.destination }
func (t *Transfer) Amount() float64     { return t.amount }
func (t *Transfer) Owner() string       { return t.owner }

func (t *Transfer) SetName(name string) {
	t.name = name
	t.notify(t, FieldName, name)
}

func (t *Transfer) SetSource(source string) {
	t.source = source
	t.notify(t, FieldSource, source)
}

func (t *Transfer) SetDestination(destination string) {
	t.destination = destination
	t.notify(t, FieldDestination, destination)
}

func (t *Transfer) SetAmount(amount float64) {
	t.amount = amount
	t.notify(t, FieldAmount, amount)
}

func (t *Transfer) SetOwner(owner string) {
	t.owner = owner
	t.notify(t, FieldOwner, owner)
}

// Set converts value and assigns it to field. Nothing changes on error.
func (t *Transfer) Set(field string, value any) error {
	switch field {
	case FieldName, FieldSource, FieldDestination, FieldOwner:
		s, err := toString(field, value)
		if err != nil {
			return err
		}
		switch field {
		case FieldName:
			t.SetName(s)
		case FieldSource:
			t.SetSource(s)
		case FieldDestination:
			t.SetDestination(s)
		case FieldOwner:
			t.SetOwner(s)
		}
	case FieldAmount:
		f, err := toFloat(field, value)
		if err != nil {
			return err
		}
		t.SetAmount(f)
	default:
		return fmt.Errorf("%w: transfer.%s", ErrUnknownField, field)
	}
	return nil
}
