// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package redisstore implements store.Store on Redis.

Keys (with the configured prefix):

	<prefix>:date     log date
	<prefix>:log      list of JSON claims in log order
	<prefix>:served   set of "date#sequence" ever claimed
	<prefix>:version  mutation counter

Claims and resets run as Lua scripts, which Redis executes one at a time;
Snapshot reads all keys in one MULTI block.
*/
package redisstore
