package demo

import (
	"context"
	"sync"

	"github.com/vietddude/orb/internal/adapter"
	"github.com/vietddude/orb/internal/fault"
)

// Company is a persistent servant that hires employees into a transient
// adapter bound after the company has been published.
type Company struct {
	adapter.ServantBase

	name      string
	endpoint  string
	employees adapter.DeferredBinding

	mu    sync.Mutex
	hired int
}

// NewCompany creates a company whose employee references point at endpoint.
func NewCompany(name, endpoint string) *Company {
	return &Company{name: name, endpoint: endpoint}
}

// BindEmployees sets the adapter employees are activated in. Only the first
// call succeeds.
func (c *Company) BindEmployees(a *adapter.Adapter) error {
	return c.employees.Bind(a)
}

// Dispatch implements adapter.Servant.
func (c *Company) Dispatch(ctx context.Context, req *adapter.Request) (any, error) {
	switch req.Operation {
	case "name":
		return c.name, nil
	case "hire":
		return c.hire(req)
	case "headcount":
		employees, err := c.employeeAdapter()
		if err != nil {
			return nil, err
		}
		return employees.Len(), nil
	case "hired":
		c.mu.Lock()
		defer c.mu.Unlock()
		return c.hired, nil
	default:
		return nil, unknownOperation(req)
	}
}

func (c *Company) hire(req *adapter.Request) (any, error) {
	name, err := stringArg(req, "name")
	if err != nil {
		return nil, err
	}
	salary, err := numberArg(req, "salary", 1000)
	if err != nil {
		return nil, err
	}

	employees, err := c.employeeAdapter()
	if err != nil {
		return nil, err
	}
	id, err := employees.Activate(NewEmployee(name, salary))
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.hired++
	c.mu.Unlock()
	return employees.Reference(id, c.endpoint), nil
}

func (c *Company) employeeAdapter() (*adapter.Adapter, error) {
	a, err := c.employees.Get()
	if err != nil {
		return nil, &fault.Cause{
			Category: fault.CategoryOther,
			Reason:   c.name + " is not yet configured",
			Err:      err,
		}
	}
	return a, nil
}

// Employee is a transient servant created by Company.hire.
type Employee struct {
	adapter.ServantBase

	name string

	mu     sync.Mutex
	salary float64
}

// NewEmployee creates an employee servant.
func NewEmployee(name string, salary float64) *Employee {
	return &Employee{name: name, salary: salary}
}

// Dispatch implements adapter.Servant.
func (e *Employee) Dispatch(ctx context.Context, req *adapter.Request) (any, error) {
	switch req.Operation {
	case "name":
		return e.name, nil
	case "salary":
		e.mu.Lock()
		defer e.mu.Unlock()
		return e.salary, nil
	case "raise":
		amount, err := numberArg(req, "amount", 0)
		if err != nil {
			return nil, err
		}
		e.mu.Lock()
		defer e.mu.Unlock()
		e.salary += amount
		return e.salary, nil
	case "fire":
		if err := req.Adapter.Deactivate(req.ObjectID); err != nil {
			return nil, err
		}
		return string(req.ObjectID), nil
	default:
		return nil, unknownOperation(req)
	}
}
