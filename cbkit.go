// Package cbkit provides a thin helper kit and example collection for the
// Couchbase Go SDK (gocb/v2).
//
// Every operation here is a pass-through to the vendor SDK: cbkit adds
// connection plumbing, option defaults, error classification, per-key batch
// fan-out, and observability hooks, but implements no protocol, storage, or
// consistency logic of its own. The runnable programs under examples/ mirror
// the kit's call surface one feature at a time.
//
// Example:
//
//	cfg := cbkit.DefaultConfig()
//	cfg.Endpoint = "localhost"
//	cfg.Username = "Administrator"
//	cfg.Password = "password"
//
//	client, err := cbkit.Connect(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	// Key-value operations
//	_, err = client.Upsert(ctx, "airline_8091", doc)
//	res, err := client.Get(ctx, "airline_8091")
//
//	// SQL++ queries
//	rows, _, err := client.Query(ctx,
//	    "SELECT meta().id, country FROM `travel-sample`.`inventory`.`airline` WHERE country = $country",
//	    cbkit.WithNamedParameters(map[string]interface{}{"country": "France"}))
package cbkit

// Version is the current kit version.
const Version = "0.2.1"
