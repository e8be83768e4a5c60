// Package tablestore keeps the list as a single Azure Table entity per key.
package tablestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/data/aztables"

	"github.com/Makepad-fr/freetodo/internal/store"
)

// DefaultPartition groups every key written by this client.
const DefaultPartition = "freetodo"

type valueEntity struct {
	aztables.Entity
	Value string `json:"Value"`
}

// Store reads and upserts entities in one table.
type Store struct {
	table     *aztables.Client
	partition string
}

// Open connects with a storage connection string and makes sure the table exists.
func Open(ctx context.Context, connStr, tableName, partition string) (*Store, error) {
	svc, err := aztables.NewServiceClientFromConnectionString(connStr, clientOptions())
	if err != nil {
		return nil, fmt.Errorf("table service: %w", err)
	}
	return openService(ctx, svc, tableName, partition)
}

func clientOptions() *aztables.ClientOptions {
	return &aztables.ClientOptions{
		ClientOptions: azcore.ClientOptions{
			Retry: policy.RetryOptions{
				MaxRetries:    3,
				TryTimeout:    time.Minute,
				RetryDelay:    time.Second,
				MaxRetryDelay: 15 * time.Second,
				StatusCodes:   []int{408, 429, 500, 502, 503, 504},
			},
		},
	}
}

// openService creates tableName unless it already exists.
func openService(ctx context.Context, svc *aztables.ServiceClient, tableName, partition string) (*Store, error) {
	if _, err := svc.CreateTable(ctx, tableName, nil); err != nil {
		var respErr *azcore.ResponseError
		if !(errors.As(err, &respErr) && respErr.ErrorCode == string(aztables.TableAlreadyExists)) {
			return nil, fmt.Errorf("create table %s: %w", tableName, err)
		}
	}
	return New(svc.NewClient(tableName), partition), nil
}

// New wraps a table client. An empty partition uses DefaultPartition.
func New(table *aztables.Client, partition string) *Store {
	if partition == "" {
		partition = DefaultPartition
	}
	return &Store{table: table, partition: partition}
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	resp, err := s.table.GetEntity(ctx, s.partition, key, nil)
	if err != nil {
		var respErr *azcore.ResponseError
		if errors.As(err, &respErr) && respErr.StatusCode == http.StatusNotFound {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("get entity: %w", err)
	}
	return decodeEntity(resp.Value)
}

func (s *Store) Put(ctx context.Context, key string, value []byte) error {
	payload, err := encodeEntity(s.partition, key, value)
	if err != nil {
		return err
	}
	_, err = s.table.UpsertEntity(ctx, payload, &aztables.UpsertEntityOptions{
		UpdateMode: aztables.UpdateModeReplace,
	})
	if err != nil {
		return fmt.Errorf("upsert entity: %w", err)
	}
	return nil
}

func (s *Store) Close() error { return nil }

func encodeEntity(partition, key string, value []byte) ([]byte, error) {
	ent := valueEntity{
		Entity: aztables.Entity{PartitionKey: partition, RowKey: key},
		Value:  string(value),
	}
	b, err := json.Marshal(ent)
	if err != nil {
		return nil, fmt.Errorf("marshal entity: %w", err)
	}
	return b, nil
}

func decodeEntity(b []byte) ([]byte, error) {
	var ent valueEntity
	if err := json.Unmarshal(b, &ent); err != nil {
		return nil, fmt.Errorf("unmarshal entity: %w", err)
	}
	return []byte(ent.Value), nil
}
