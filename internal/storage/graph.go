package storage

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/wallet-sentinel/internal/config"
	"github.com/wallet-sentinel/internal/models"
)

// Graph store key layout. Everything is a merge (set add / hash set), so
// every write path is safe to re-run.
//
//	graph:wallets          SET   all known node addresses
//	graph:blacklist        SET   addresses labeled is_blacklisted
//	graph:adj:{addr}       SET   undirected neighbor addresses
//	graph:edges            SET   transaction hashes with a stored edge
//	graph:edge:{hash}      HASH  sender, receiver, value, timestamp
//	graph:out:{addr}       SET   hashes of SENT edges originating at addr
//
// Edge identity is the ledger transaction hash, so replaying the
// synchronizer merges instead of duplicating edges.
const (
	keyWallets   = "graph:wallets"
	keyBlacklist = "graph:blacklist"
	keyEdges     = "graph:edges"
)

func keyAdjacency(addr string) string { return "graph:adj:" + addr }
func keyEdge(hash string) string      { return "graph:edge:" + hash }
func keyOutbound(addr string) string  { return "graph:out:" + addr }

// GraphStore is the wallet-relationship graph adapter. The client handle is
// explicitly owned by the caller: opened at batch-run start, closed at end.
type GraphStore struct {
	client *redis.Client
}

// NewGraphStore creates a graph store connection
func NewGraphStore(cfg *config.RedisConfig) (*GraphStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.MaxConnections,
		MinIdleConns: 5,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolTimeout:  4 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to graph store: %w", err)
	}

	return &GraphStore{client: client}, nil
}

// NewGraphStoreWithClient wraps an existing client. Used by tests.
func NewGraphStoreWithClient(client *redis.Client) *GraphStore {
	return &GraphStore{client: client}
}

// Close closes the graph store connection
func (g *GraphStore) Close() error {
	if g.client != nil {
		return g.client.Close()
	}
	return nil
}

// Ping checks if the graph store is reachable
func (g *GraphStore) Ping(ctx context.Context) error {
	return g.client.Ping(ctx).Err()
}

// Client returns the underlying Redis client
func (g *GraphStore) Client() *redis.Client {
	return g.client
}

// MergeTransactions merges one batch of ledger transactions into the graph:
// sender and receiver nodes, the undirected adjacency used for hop
// traversal, and one SENT edge keyed by transaction hash. The whole batch
// goes through a single pipeline round trip.
func (g *GraphStore) MergeTransactions(ctx context.Context, txs []*models.Transaction) error {
	if len(txs) == 0 {
		return nil
	}

	pipe := g.client.Pipeline()
	for _, tx := range txs {
		sender := NormalizeAddress(tx.Sender)
		receiver := NormalizeAddress(tx.Receiver)

		pipe.SAdd(ctx, keyWallets, sender, receiver)
		pipe.SAdd(ctx, keyAdjacency(sender), receiver)
		pipe.SAdd(ctx, keyAdjacency(receiver), sender)
		pipe.SAdd(ctx, keyEdges, tx.Hash)
		pipe.HSet(ctx, keyEdge(tx.Hash),
			"sender", sender,
			"receiver", receiver,
			"value", strconv.FormatFloat(tx.Value, 'f', -1, 64),
			"timestamp", strconv.FormatInt(tx.Timestamp.UTC().Unix(), 10),
		)
		pipe.SAdd(ctx, keyOutbound(sender), tx.Hash)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to merge transaction batch: %w", err)
	}

	return nil
}

// LabelBlacklisted sets the blacklist flag on the given addresses. Only
// addresses already present as graph nodes are labeled; the rest are
// silently skipped. Returns the number of nodes labeled.
func (g *GraphStore) LabelBlacklisted(ctx context.Context, addresses []string) (int64, error) {
	if len(addresses) == 0 {
		return 0, nil
	}

	members := make([]interface{}, len(addresses))
	for i, addr := range addresses {
		members[i] = NormalizeAddress(addr)
	}

	present, err := g.client.SMIsMember(ctx, keyWallets, members...).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to check node existence: %w", err)
	}

	var toLabel []interface{}
	for i, ok := range present {
		if ok {
			toLabel = append(toLabel, members[i])
		}
	}
	if len(toLabel) == 0 {
		return 0, nil
	}

	if err := g.client.SAdd(ctx, keyBlacklist, toLabel...).Err(); err != nil {
		return 0, fmt.Errorf("failed to label blacklisted nodes: %w", err)
	}

	return int64(len(toLabel)), nil
}

// Neighbors returns the undirected neighbor set of a node.
func (g *GraphStore) Neighbors(ctx context.Context, address string) ([]string, error) {
	neighbors, err := g.client.SMembers(ctx, keyAdjacency(NormalizeAddress(address))).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read neighbors: %w", err)
	}
	return neighbors, nil
}

// IsBlacklisted reports whether a node carries the blacklist label.
func (g *GraphStore) IsBlacklisted(ctx context.Context, address string) (bool, error) {
	ok, err := g.client.SIsMember(ctx, keyBlacklist, NormalizeAddress(address)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check blacklist label: %w", err)
	}
	return ok, nil
}

// NodeExists reports whether an address is present as a graph node.
func (g *GraphStore) NodeExists(ctx context.Context, address string) (bool, error) {
	ok, err := g.client.SIsMember(ctx, keyWallets, NormalizeAddress(address)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check node existence: %w", err)
	}
	return ok, nil
}

// NodeCount returns the number of wallet nodes in the graph.
func (g *GraphStore) NodeCount(ctx context.Context) (int64, error) {
	count, err := g.client.SCard(ctx, keyWallets).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to count nodes: %w", err)
	}
	return count, nil
}

// EdgeCount returns the number of SENT edges in the graph.
func (g *GraphStore) EdgeCount(ctx context.Context) (int64, error) {
	count, err := g.client.SCard(ctx, keyEdges).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to count edges: %w", err)
	}
	return count, nil
}

// BlacklistedCount returns the number of nodes carrying the blacklist label.
func (g *GraphStore) BlacklistedCount(ctx context.Context) (int64, error) {
	count, err := g.client.SCard(ctx, keyBlacklist).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to count blacklisted nodes: %w", err)
	}
	return count, nil
}

// SentEdges returns the SENT edges originating at a wallet as ledger-shaped
// transactions reconstructed from edge attributes.
func (g *GraphStore) SentEdges(ctx context.Context, address string) ([]*models.Transaction, error) {
	hashes, err := g.client.SMembers(ctx, keyOutbound(NormalizeAddress(address))).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read outbound edges: %w", err)
	}

	txs := make([]*models.Transaction, 0, len(hashes))
	for _, hash := range hashes {
		fields, err := g.client.HGetAll(ctx, keyEdge(hash)).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to read edge %s: %w", hash, err)
		}
		if len(fields) == 0 {
			continue
		}

		value, err := strconv.ParseFloat(fields["value"], 64)
		if err != nil {
			return nil, fmt.Errorf("malformed edge value for %s: %w", hash, err)
		}
		unix, err := strconv.ParseInt(fields["timestamp"], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("malformed edge timestamp for %s: %w", hash, err)
		}

		txs = append(txs, &models.Transaction{
			Hash:      hash,
			Sender:    fields["sender"],
			Receiver:  fields["receiver"],
			Value:     value,
			Timestamp: time.Unix(unix, 0).UTC(),
		})
	}

	return txs, nil
}
