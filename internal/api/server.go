// Package api exposes the transactional map over HTTP: a small service
// wrapping the library in request handlers and validation.
package api

import (
	"net/http"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/jekaa/txmap/internal/store"
	"github.com/jekaa/txmap/mvcc"
)

// txn is the concrete transaction type this server's map produces.
type txn = mvcc.Tx[string, []byte, *store.MapStorage[string, []byte]]

// Server wires a *mvcc.Map over a string-keyed, []byte-valued
// MapStorage to a small set of gin routes: GET/PUT/DELETE on
// /keys/:key.
type Server struct {
	m        *mvcc.Map[string, []byte, *store.MapStorage[string, []byte]]
	storage  *store.MapStorage[string, []byte]
	validate *validator.Validate
	engine   *gin.Engine
}

// NewServer constructs a Server over m and the storage backend m was
// built on; storage is also used directly to create keys on PUT.
func NewServer(m *mvcc.Map[string, []byte, *store.MapStorage[string, []byte]], storage *store.MapStorage[string, []byte]) *Server {
	s := &Server{
		m:        m,
		storage:  storage,
		validate: validator.New(),
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.GET("/keys/:key", s.handleGet)
	r.PUT("/keys/:key", s.handlePut)
	r.DELETE("/keys/:key", s.handleDelete)
	s.engine = r

	return s
}

// Handler returns the http.Handler to mount, e.g. with http.ListenAndServe.
func (s *Server) Handler() http.Handler {
	return s.engine
}

type putRequest struct {
	Value string `json:"value" validate:"required,max=1048576"`
}

func (s *Server) handleGet(c *gin.Context) {
	key := c.Param("key")

	var value []byte
	var found bool
	mvcc.Transaction(s.m, func(tx *txn) any {
		g, ok := tx.Get(key)
		found = ok
		if ok {
			value = *g.Value()
		}
		return nil
	})

	if !found {
		c.Status(http.StatusNotFound)
		return
	}

	body, _ := sonic.Marshal(gin.H{"key": key, "value": string(value)})
	c.Data(http.StatusOK, "application/json; charset=utf-8", body)
}

func (s *Server) handlePut(c *gin.Context) {
	key := c.Param("key")

	var req putRequest
	raw, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := sonic.Unmarshal(raw, &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := s.validate.Struct(req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	value := []byte(req.Value)

	// The core never inserts through the Storage contract — that's the
	// backend's concern — so a key unseen by this backend is minted
	// here, before the transaction that then updates it. This is a
	// check-then-act race against another concurrent PUT of a
	// brand-new key; acceptable for this demo service, not for a
	// production key-creation path.
	if _, ok := s.storage.Get(key); !ok {
		s.storage.Insert(key, value)
	}

	mvcc.Transaction(s.m, func(tx *txn) any {
		w, ok := tx.GetMut(key)
		if ok {
			*w.Value() = value
		}
		return nil
	})

	c.Status(http.StatusNoContent)
}

func (s *Server) handleDelete(c *gin.Context) {
	key := c.Param("key")

	var found bool
	mvcc.Transaction(s.m, func(tx *txn) any {
		_, ok := tx.Remove(key)
		found = ok
		return nil
	})

	if !found {
		c.Status(http.StatusNotFound)
		return
	}
	c.Status(http.StatusNoContent)
}
