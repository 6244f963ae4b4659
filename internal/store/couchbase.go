package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/couchbase/gocb/v2"
)

// CouchbaseConfig addresses a collection in a Couchbase cluster.
type CouchbaseConfig struct {
	ConnectionString string
	Username         string
	Password         string
	Bucket           string
	Scope            string
	Collection       string
}

// keyspace is the fully qualified N1QL keyspace of the collection.
func (c CouchbaseConfig) keyspace() string {
	return fmt.Sprintf("`%s`.`%s`.`%s`", c.Bucket, c.Scope, c.Collection)
}

// couchbaseRules is the fixed mapping from SDK error categories to classes.
var couchbaseRules = []ErrorRule{
	{Err: gocb.ErrDocumentNotFound, Class: ClassNotFound},
	{Err: gocb.ErrTimeout, Class: ClassTransient},
	{Err: gocb.ErrUnambiguousTimeout, Class: ClassTransient},
	{Err: gocb.ErrAmbiguousTimeout, Class: ClassTransient},
	{Err: gocb.ErrTemporaryFailure, Class: ClassTransient},
	{Err: gocb.ErrServiceNotAvailable, Class: ClassTransient},
	{Err: gocb.ErrRequestCanceled, Class: ClassTransient},
	{Err: gocb.ErrAuthenticationFailure, Class: ClassFatal},
	{Err: gocb.ErrBucketNotFound, Class: ClassFatal},
	{Err: gocb.ErrScopeNotFound, Class: ClassFatal},
	{Err: gocb.ErrCollectionNotFound, Class: ClassFatal},
	{Err: gocb.ErrInvalidArgument, Class: ClassFatal},
}

// ClassifyCouchbase maps gocb errors to classes.
var ClassifyCouchbase = TableClassifier(couchbaseRules)

// CouchbaseBackend returns a Backend dialling the configured cluster.
func CouchbaseBackend(cfg CouchbaseConfig) Backend {
	return Backend{
		Name:     "couchbase",
		Dial:     cfg.dial,
		Classify: ClassifyCouchbase,
	}
}

func (c CouchbaseConfig) dial(ctx context.Context) (Session, error) {
	cluster, err := gocb.Connect(c.ConnectionString, gocb.ClusterOptions{
		Authenticator: gocb.PasswordAuthenticator{
			Username: c.Username,
			Password: c.Password,
		},
	})
	if err != nil {
		return nil, err
	}

	bucket := cluster.Bucket(c.Bucket)

	timeout := 10 * time.Second
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
	}

	if err = bucket.WaitUntilReady(timeout, &gocb.WaitUntilReadyOptions{Context: ctx}); err != nil {
		_ = cluster.Close(nil)

		return nil, err
	}

	return &couchbaseSession{
		cluster:    cluster,
		collection: bucket.Scope(c.Scope).Collection(c.Collection),
		lookup: "SELECT META(s).id AS id, s.longUrl, s.shortUrl, s.createdAt FROM " +
			c.keyspace() + " AS s WHERE s.longUrl = $1 LIMIT 1",
	}, nil
}

type couchbaseSession struct {
	cluster    *gocb.Cluster
	collection *gocb.Collection
	lookup     string
}

type couchbaseRow struct {
	ID        string `json:"id"`
	LongURL   string `json:"longUrl"`
	ShortURL  string `json:"shortUrl"`
	CreatedAt string `json:"createdAt"`
}

func (s *couchbaseSession) Lookup(ctx context.Context, longURL string) (Record, bool, error) {
	// request_plus so a mapping written a moment ago is visible to the dedup check.
	rows, err := s.cluster.Query(s.lookup, &gocb.QueryOptions{
		PositionalParameters: []interface{}{longURL},
		ScanConsistency:      gocb.QueryScanConsistencyRequestPlus,
		Context:              ctx,
	})
	if err != nil {
		return Record{}, false, err
	}

	var (
		row   couchbaseRow
		found bool
	)

	for rows.Next() {
		if err = rows.Row(&row); err != nil {
			_ = rows.Close()

			return Record{}, false, err
		}

		found = true

		break
	}

	closeErr := rows.Close()
	if err = rows.Err(); err != nil {
		return Record{}, false, err
	}

	if closeErr != nil {
		return Record{}, false, closeErr
	}

	if !found {
		return Record{}, false, nil
	}

	return Record{
		Key: row.ID,
		Document: Document{
			LongURL:   row.LongURL,
			ShortURL:  row.ShortURL,
			CreatedAt: row.CreatedAt,
		},
	}, true, nil
}

func (s *couchbaseSession) Get(ctx context.Context, key string) (Document, error) {
	res, err := s.collection.Get(key, &gocb.GetOptions{Context: ctx})
	if err != nil {
		return Document{}, err
	}

	var doc Document
	if err = res.Content(&doc); err != nil {
		return Document{}, fmt.Errorf("decoding document %s: %w", key, err)
	}

	return doc, nil
}

func (s *couchbaseSession) Upsert(ctx context.Context, key string, doc Document) error {
	_, err := s.collection.Upsert(key, doc, &gocb.UpsertOptions{Context: ctx})

	return err
}

func (s *couchbaseSession) Ping(ctx context.Context) error {
	report, err := s.cluster.Ping(&gocb.PingOptions{
		ServiceTypes: []gocb.ServiceType{gocb.ServiceTypeKeyValue},
		Context:      ctx,
	})
	if err != nil {
		return err
	}

	for _, endpoints := range report.Services {
		for _, ep := range endpoints {
			if ep.State != gocb.PingStateOk {
				return fmt.Errorf("couchbase endpoint %s: %w", ep.Remote, errEndpointDown)
			}
		}
	}

	return nil
}

func (s *couchbaseSession) Close() error {
	return s.cluster.Close(nil)
}

var errEndpointDown = errors.New("endpoint not ok")
