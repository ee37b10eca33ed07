package serve

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	cmdUtil "github.com/reinferio/saltfish/cmd/util"
	"github.com/reinferio/saltfish/internal/config"
	"github.com/reinferio/saltfish/internal/idgen"
	"github.com/reinferio/saltfish/internal/listenerbus"
	"github.com/reinferio/saltfish/internal/logging"
	"github.com/reinferio/saltfish/internal/metadatastore"
	"github.com/reinferio/saltfish/internal/objectstore"
	"github.com/reinferio/saltfish/internal/rpc/transport"
	"github.com/reinferio/saltfish/internal/rpchandlers"
	"github.com/reinferio/saltfish/internal/summarizer"
)

var (
	serveCmdConfig = config.Default()
	ServeCmd       = &cobra.Command{
		Use:     "serve",
		Short:   "Start the saltfish server",
		Long:    `Start the saltfish server with the specified configuration. The configuration can be set via command line flags or environment variables. The format of the environment variables is SALTFISH_<flag> (e.g. SALTFISH_BIND_STR=0.0.0.0:7354)`,
		PreRunE: processConfig,
		RunE:    run,
	}
)

func init() {
	// initialize viper
	cobra.OnInitialize(initConfig)

	d := config.Default()

	// add flags
	key := "bind-str"
	ServeCmd.PersistentFlags().String(key, d.BindStr, cmdUtil.WrapString("The address on which the RPC server will listen"))

	key = "records-bucket-prefix"
	ServeCmd.PersistentFlags().String(key, d.RecordsBucketPrefix, cmdUtil.WrapString("ObjectStore bucket prefix for per-dataset record buckets"))
	key = "schemas-bucket"
	ServeCmd.PersistentFlags().String(key, d.SchemasBucket, cmdUtil.WrapString("ObjectStore bucket for schema snapshots"))
	key = "summarizers-bucket"
	ServeCmd.PersistentFlags().String(key, d.SummarizersBucket, cmdUtil.WrapString("ObjectStore bucket for summarizer snapshots"))

	key = "riak-host"
	ServeCmd.PersistentFlags().String(key, d.Riak.Host, cmdUtil.WrapString("ObjectStore (Riak-like KV store) host"))
	key = "riak-port"
	ServeCmd.PersistentFlags().Int(key, d.Riak.Port, cmdUtil.WrapString("ObjectStore (Riak-like KV store) port"))

	key = "mariadb-host"
	ServeCmd.PersistentFlags().String(key, d.MariaDB.Host, cmdUtil.WrapString("MetadataStore (MariaDB) host"))
	key = "mariadb-port"
	ServeCmd.PersistentFlags().Int(key, d.MariaDB.Port, cmdUtil.WrapString("MetadataStore (MariaDB) port"))
	key = "mariadb-db"
	ServeCmd.PersistentFlags().String(key, d.MariaDB.DB, cmdUtil.WrapString("MetadataStore (MariaDB) database name"))
	key = "mariadb-user"
	ServeCmd.PersistentFlags().String(key, d.MariaDB.User, cmdUtil.WrapString("MetadataStore (MariaDB) user"))
	key = "mariadb-password"
	ServeCmd.PersistentFlags().String(key, d.MariaDB.Password, cmdUtil.WrapString("MetadataStore (MariaDB) password"))

	key = "redis-host"
	ServeCmd.PersistentFlags().String(key, d.Redis.Host, cmdUtil.WrapString("ListenerBus pub/sub (Redis) host"))
	key = "redis-port"
	ServeCmd.PersistentFlags().Int(key, d.Redis.Port, cmdUtil.WrapString("ListenerBus pub/sub (Redis) port"))
	key = "redis-key"
	ServeCmd.PersistentFlags().String(key, d.Redis.Key, cmdUtil.WrapString("ListenerBus pub/sub channel key"))

	key = "max-generate-id-count"
	ServeCmd.PersistentFlags().Uint32(key, d.MaxGenerateIDCount, cmdUtil.WrapString("Maximum number of ids a single GenerateId call may request"))
	key = "max-random-index"
	ServeCmd.PersistentFlags().Int64(key, d.MaxRandomIndex, cmdUtil.WrapString("Modulus for the randomindex_int secondary index on records"))

	key = "log-level"
	ServeCmd.PersistentFlags().String(key, d.LogLevel, cmdUtil.WrapString("LogLevel is the level at which logs will be output (debug, info, warning, error)"))
}

// processConfig reads the configuration from the command line flags and environment variables and converts them to the server configuration
func processConfig(cmd *cobra.Command, _ []string) error {
	// bind the flags to viper
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	serveCmdConfig.BindStr = viper.GetString("bind-str")

	serveCmdConfig.RecordsBucketPrefix = viper.GetString("records-bucket-prefix")
	serveCmdConfig.SchemasBucket = viper.GetString("schemas-bucket")
	serveCmdConfig.SummarizersBucket = viper.GetString("summarizers-bucket")

	serveCmdConfig.Riak.Host = viper.GetString("riak-host")
	serveCmdConfig.Riak.Port = viper.GetInt("riak-port")

	serveCmdConfig.MariaDB.Host = viper.GetString("mariadb-host")
	serveCmdConfig.MariaDB.Port = viper.GetInt("mariadb-port")
	serveCmdConfig.MariaDB.DB = viper.GetString("mariadb-db")
	serveCmdConfig.MariaDB.User = viper.GetString("mariadb-user")
	serveCmdConfig.MariaDB.Password = viper.GetString("mariadb-password")

	serveCmdConfig.Redis.Host = viper.GetString("redis-host")
	serveCmdConfig.Redis.Port = viper.GetInt("redis-port")
	serveCmdConfig.Redis.Key = viper.GetString("redis-key")

	serveCmdConfig.MaxGenerateIDCount = viper.GetUint32("max-generate-id-count")
	serveCmdConfig.MaxRandomIndex = viper.GetInt64("max-random-index")

	serveCmdConfig.LogLevel = viper.GetString("log-level")

	return nil
}

// run starts the saltfish server
func run(_ *cobra.Command, _ []string) error {
	log := logging.New("saltfish")
	log.SetLevel(logging.ParseLevel(serveCmdConfig.LogLevel))
	log.Infof("starting with configuration:%s", serveCmdConfig.String())

	metadata, err := metadatastore.Open(serveCmdConfig.MariaDB.DSN())
	if err != nil {
		return fmt.Errorf("opening metadata store: %w", err)
	}
	defer metadata.Close()

	objects := objectstore.NewRedisStore(serveCmdConfig.Riak.Addr())

	bus := listenerbus.New()

	pubsub := objectstore.NewRedisStore(serveCmdConfig.Redis.Addr())
	bus.SetRemote(pubsub, serveCmdConfig.Redis.Key, log)

	summaries := summarizer.New(objects, serveCmdConfig.SchemasBucket, serveCmdConfig.SummarizersBucket, log)
	summaries.Subscribe(bus)
	defer summaries.Stop()

	bus.Run()

	handlers := rpchandlers.New(serveCmdConfig, metadata, objects, idgen.Generator{}, bus, log)

	server := transport.NewServer(handlers, log)
	log.Infof("listening on %s", serveCmdConfig.BindStr)
	return server.ListenAndServe(serveCmdConfig.BindStr)
}

// initConfig reads in serveCmdConfig file and ENV variables if set.
func initConfig() {
	// load env files
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	// initialize viper
	viper.SetEnvPrefix("saltfish")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv() // read in environment variables that match
}
