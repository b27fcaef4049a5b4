// Package demo contains the sample servants served by orbd: a company that
// hires transient employees and a weather station.
package demo

import (
	"fmt"

	"github.com/vietddude/orb/internal/adapter"
	"github.com/vietddude/orb/internal/fault"
)

// Adapter names and well-known identities.
const (
	AdapterCompany   = "company"
	AdapterEmployees = "employees"
	AdapterStations  = "stations"

	CompanyID = "company"
	StationID = "station"
)

// Names published in the naming service.
const (
	NameCompany = "Company"
	NameStation = "WeatherStation"
)

func stringArg(req *adapter.Request, key string) (string, error) {
	v, ok := req.Args[key]
	if !ok {
		return "", badArg(req, key, "missing")
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return "", badArg(req, key, "must be a non-empty string")
	}
	return s, nil
}

func numberArg(req *adapter.Request, key string, def float64) (float64, error) {
	v, ok := req.Args[key]
	if !ok {
		return def, nil
	}
	switch n := v.(type) {
	case float64:
		return n, nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	default:
		return 0, badArg(req, key, "must be a number")
	}
}

func badArg(req *adapter.Request, key, problem string) error {
	return fault.NewCause(fault.CategoryOther, "%s: argument %q %s", req.Operation, key, problem)
}

func unknownOperation(req *adapter.Request) error {
	return fmt.Errorf("%w: %s on %s", adapter.ErrUnknownOperation, req.Operation, req.ObjectID)
}
