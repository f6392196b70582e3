// Package store 提供 core.Store 等存储接口的具体实现。
// 接口定义在 core 包：
//
//	var s core.Store = store.NewMemoryStore()
//	var kv core.KeyValueStore = mustRedis(store.NewRedisStore("127.0.0.1:6379", 0))
package store
