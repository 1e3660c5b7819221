package interp

// preludePath is the pseudo file name diagnostics from within map methods
// refer to.
const preludePath = "native/lang/hashmap.syms"

// preludeSource defines the methods of map instances. It is executed within
// the scope of every new instance, where `entries` references the scope
// holding the instance's entries.
const preludeSource = `fn set(key, value) std.hashmap.set(entries, key, value);
fn get(key) return std.hashmap.get(entries, key);
fn del(key) return std.hashmap.del(entries, key);
fn has(key) return std.hashmap.has(entries, key);
fn keys() return std.hashmap.keys(entries);
fn values() return std.hashmap.values(entries);
fn clear() std.hashmap.clear(entries);
fn len() return std.hashmap.len(entries);
`
