// Package paginate walks paginated REST collections.
//
// Two addressing schemes are supported by two separate components:
//
//   - CursorWalker follows opaque next/previous cursor tokens (follower
//     lists, mutes, list memberships).
//   - Timeline follows monotonically increasing numeric IDs using
//     since_id/max_id bounds (posts, direct messages).
//
// Both ask a Fetcher for one page at a time, run the fetch inside a Future
// so callers can interleave several walks, and consult a Policy before
// retrying a failed fetch. State is only updated once the caller observes a
// successful result; errors and cancellations leave it untouched.
//
// The package never inspects item fields and performs no I/O itself.
package paginate
