package routes

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapped struct {
	method, path, handler string
	middleware            []string
	name                  string
	domain                string
}

type fakeHandle struct{ m *mapped }

func (h fakeHandle) Middleware(names ...string) { h.m.middleware = append(h.m.middleware, names...) }
func (h fakeHandle) SetName(name string)        { h.m.name = name }
func (h fakeHandle) SetDomain(domain string)    { h.m.domain = domain }

type fakeRegistrar struct{ routes []*mapped }

func (r *fakeRegistrar) Map(method, path, handler string) RouteHandle {
	m := &mapped{method: method, path: path, handler: handler}
	r.routes = append(r.routes, m)
	return fakeHandle{m}
}

type nilRegistrar struct{}

func (nilRegistrar) Map(string, string, string) RouteHandle { return nil }

func TestCollectionInjectInto(t *testing.T) {
	c := NewCollection(
		Record{Method: GET, Path: "/", Handler: "Home@index"},
		Record{Method: POST, Path: "/users", Handler: "Users@store", Middleware: []string{"auth"}, Name: "users.store", Domain: "api.example.com"},
	)
	require.Equal(t, 2, c.Len())

	reg := &fakeRegistrar{}
	require.NoError(t, c.InjectInto(reg, ""))
	require.Len(t, reg.routes, 2)

	assert.Equal(t, "GET", reg.routes[0].method)
	assert.Equal(t, "/", reg.routes[0].path)
	assert.Nil(t, reg.routes[0].middleware)
	assert.Empty(t, reg.routes[0].name)

	assert.Equal(t, "/users", reg.routes[1].path)
	assert.Equal(t, []string{"auth"}, reg.routes[1].middleware)
	assert.Equal(t, "users.store", reg.routes[1].name)
	assert.Equal(t, "api.example.com", reg.routes[1].domain)
}

func TestCollectionInjectIntoPrefix(t *testing.T) {
	c := NewCollection(
		Record{Method: GET, Path: "/", Handler: "Admin@index"},
		Record{Method: GET, Path: "/users", Handler: "Admin@users"},
	)

	for _, prefix := range []string{"/admin", "/admin/", "/admin//"} {
		reg := &fakeRegistrar{}
		require.NoError(t, c.InjectInto(reg, prefix))
		assert.Equal(t, "/admin", reg.routes[0].path, "prefix %q", prefix)
		assert.Equal(t, "/admin/users", reg.routes[1].path, "prefix %q", prefix)
	}

	reg := &fakeRegistrar{}
	require.NoError(t, c.InjectInto(reg, "/"))
	assert.Equal(t, "/", reg.routes[0].path)
}

func TestCollectionInjectIntoInvalidPrefix(t *testing.T) {
	c := NewCollection(Record{Method: GET, Path: "/", Handler: "Home@index"})

	err := c.InjectInto(&fakeRegistrar{}, "admin")
	assert.True(t, errors.Is(err, ErrInvalidPrefix))
}

func TestCollectionInjectIntoNilHandle(t *testing.T) {
	c := NewCollection(Record{Method: GET, Path: "/", Handler: "Home@index"})
	assert.Error(t, c.InjectInto(nilRegistrar{}, ""))
}

func TestCollectionRecordsIsCopy(t *testing.T) {
	c := NewCollection(Record{Method: GET, Path: "/a"})
	recs := c.Records()
	recs[0].Path = "/b"
	assert.Equal(t, "/a", c.At(0).Path)
}
