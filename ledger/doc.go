// Package ledger records which inputs a run has processed.
//
// An Entry is written after all artifacts of an input are stored. Before
// processing, a run looks up the input: an entry with the same digest means
// the outputs are current and the input can be skipped.
//
// Claims keep two concurrent runs from processing the same input. Claim is a
// conditional create in every backend and fails with ErrClaimed while another
// run holds the input.
//
// Three backends are provided:
//
//   - BlobLedger keeps one JSON object per input in a blobstore.BlobStore
//   - DynamoLedger keeps items in a DynamoDB table with partition key "pk"
//   - SQLiteLedger keeps rows in a local SQLite database
package ledger
