package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"cloud.google.com/go/bigquery"
	"github.com/carbocation/pfx"
	"google.golang.org/api/googleapi"
)

// WrappedBigQuery bundles a BigQuery client with the project and dataset it
// writes to.
type WrappedBigQuery struct {
	Context  context.Context
	Client   *bigquery.Client
	Project  string
	Database string
}

// splitTableName splits "dataset.table".
func splitTableName(name string) (dataset, table string, err error) {
	parts := strings.Split(name, ".")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("expected a table name formatted as dataset.table, got %q", name)
	}

	return parts[0], parts[1], nil
}

// exportBigQuery appends the rows to project:dataset.table, creating the table
// if it does not exist yet.
func exportBigQuery(ctx context.Context, project, tableName string, rows []*ResultRow) error {
	dataset, table, err := splitTableName(tableName)
	if err != nil {
		return err
	}

	BQ := &WrappedBigQuery{
		Context:  ctx,
		Project:  project,
		Database: dataset,
	}

	BQ.Client, err = bigquery.NewClient(BQ.Context, BQ.Project)
	if err != nil {
		return pfx.Err(err)
	}
	defer BQ.Client.Close()

	t := BQ.Client.Dataset(BQ.Database).Table(table)
	if err := ensureTable(BQ.Context, t); err != nil {
		return err
	}

	if err := t.Inserter().Put(BQ.Context, rows); err != nil {
		return pfx.Err(err)
	}

	return nil
}

func ensureTable(ctx context.Context, t *bigquery.Table) error {
	_, err := t.Metadata(ctx)
	if err == nil {
		return nil
	}

	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) || apiErr.Code != http.StatusNotFound {
		return pfx.Err(err)
	}

	schema, err := bigquery.InferSchema(ResultRow{})
	if err != nil {
		return pfx.Err(err)
	}

	return pfx.Err(t.Create(ctx, &bigquery.TableMetadata{Schema: schema}))
}
