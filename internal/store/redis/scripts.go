package redis

import goredis "github.com/redis/go-redis/v9"

const (
	replyOK        = "OK"
	replyDuplicate = "DUPLICATE"
	replyPosition  = "POSITION"
	replyNotFound  = "NOT_FOUND"
)

// insertScript KEYS: entry, jobs, active, positions.
// ARGV: jobRef, position, status, timestamp, active ("1" or "0").
var insertScript = goredis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 1 then
  return redis.status_reply('DUPLICATE')
end
if ARGV[5] == '1' and redis.call('HEXISTS', KEYS[4], ARGV[2]) == 1 then
  return redis.status_reply('POSITION')
end
redis.call('HSET', KEYS[1], 'job_ref', ARGV[1], 'position', ARGV[2], 'status', ARGV[3], 'created_at', ARGV[4], 'updated_at', ARGV[4])
redis.call('SADD', KEYS[2], ARGV[1])
if ARGV[5] == '1' then
  redis.call('ZADD', KEYS[3], ARGV[2], ARGV[1])
  redis.call('HSET', KEYS[4], ARGV[2], ARGV[1])
end
return redis.status_reply('OK')
`)

// updateScript KEYS: entry, active, positions.
// ARGV: jobRef, expected, next, timestamp, next is active ("1" or "0").
// Returns the entry hash on success, NOT_FOUND, POSITION when the entry would
// rejoin the active set at a held position, or the current status.
var updateScript = goredis.NewScript(`
local current = redis.call('HGET', KEYS[1], 'status')
if not current then
  return redis.status_reply('NOT_FOUND')
end
if current ~= ARGV[2] then
  return redis.status_reply('CONFLICT:' .. current)
end
local position = redis.call('HGET', KEYS[1], 'position')
local was_active = current == 'pending' or current == 'in-progress'
if ARGV[5] == '1' and not was_active then
  local holder = redis.call('HGET', KEYS[3], position)
  if holder and holder ~= ARGV[1] then
    return redis.status_reply('POSITION')
  end
end
redis.call('HSET', KEYS[1], 'status', ARGV[3], 'updated_at', ARGV[4])
if ARGV[5] == '0' and was_active then
  redis.call('ZREM', KEYS[2], ARGV[1])
  if redis.call('HGET', KEYS[3], position) == ARGV[1] then
    redis.call('HDEL', KEYS[3], position)
  end
elseif ARGV[5] == '1' and not was_active then
  redis.call('ZADD', KEYS[2], position, ARGV[1])
  redis.call('HSET', KEYS[3], position, ARGV[1])
end
return redis.call('HGETALL', KEYS[1])
`)

// purgeScript KEYS: entry, jobs.
// ARGV: jobRef, cutoff timestamp. Deletes the entry when it is terminal and
// was last updated before the cutoff. Returns 1 when deleted.
var purgeScript = goredis.NewScript(`
local fields = redis.call('HMGET', KEYS[1], 'status', 'updated_at')
local status, updated = fields[1], fields[2]
if not status then
  return 0
end
if status ~= 'completed' and status ~= 'failed' then
  return 0
end
if updated >= ARGV[2] then
  return 0
end
redis.call('DEL', KEYS[1])
redis.call('SREM', KEYS[2], ARGV[1])
return 1
`)
