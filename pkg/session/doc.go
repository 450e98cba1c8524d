/*
Package session serializes conversation access across goroutines and
replicas.

It combines reference-counted local mutexes with an optional distributed
locker so the same conversation is never mutated concurrently, regardless of
how many engine replicas are serving traffic.
*/
package session
