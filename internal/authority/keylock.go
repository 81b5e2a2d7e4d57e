package authority

import (
	"hash/fnv"
	"sync"
)

const lockShards = 64

// keyedMutex serializes read-modify-write cycles on account sessions. Striped
// so two different accounts rarely contend; two logins for the same account
// always hit the same shard.
type keyedMutex struct {
	shards [lockShards]sync.Mutex
}

// lock acquires the shard for key and returns its unlock func.
func (k *keyedMutex) lock(key string) func() {
	h := fnv.New32a()
	h.Write([]byte(key))
	m := &k.shards[h.Sum32()%lockShards]
	m.Lock()
	return m.Unlock
}
