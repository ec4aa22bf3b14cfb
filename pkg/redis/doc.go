// Package redis establishes verified Redis connections from environment
// configuration.
//
// The project uses Redis to fan audit feed events out across instances
// (see auditlog.RedisHub); this package only owns connecting:
//
//	var cfg redis.Config
//	config.MustLoad(&cfg)
//
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer client.Close()
package redis
