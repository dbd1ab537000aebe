package schema

import "github.com/quillworks/quill/pkg/storage"

const usersPostgresDDL = `
CREATE TABLE IF NOT EXISTS users (
    id UUID PRIMARY KEY,
    username VARCHAR(150) NOT NULL,
    email VARCHAR(255) NOT NULL,
    full_name VARCHAR(255),
    role VARCHAR(50) NOT NULL DEFAULT 'user',
    permissions TEXT[],
    is_active BOOLEAN NOT NULL DEFAULT TRUE,
    hashed_password VARCHAR(255) NOT NULL,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP
);
CREATE UNIQUE INDEX IF NOT EXISTS uniq_users_username ON users (username);
CREATE UNIQUE INDEX IF NOT EXISTS uniq_users_email ON users (email)`

const usersMySQLDDL = `
CREATE TABLE IF NOT EXISTS users (
    id BIGINT AUTO_INCREMENT PRIMARY KEY,
    username VARCHAR(150) NOT NULL,
    email VARCHAR(255) NOT NULL,
    full_name VARCHAR(255),
    role VARCHAR(50) NOT NULL DEFAULT 'user',
    permissions TEXT,
    is_active BOOLEAN NOT NULL DEFAULT TRUE,
    hashed_password VARCHAR(255) NOT NULL,
    created_at DATETIME(3) NOT NULL DEFAULT CURRENT_TIMESTAMP(3),
    updated_at DATETIME(3) NULL,
    UNIQUE KEY uniq_users_username (username),
    UNIQUE KEY uniq_users_email (email)
)`

const usersSQLServerDDL = `
IF OBJECT_ID('users', 'U') IS NULL
CREATE TABLE users (
    id UNIQUEIDENTIFIER PRIMARY KEY,
    username NVARCHAR(150) NOT NULL,
    email NVARCHAR(255) NOT NULL,
    full_name NVARCHAR(255),
    role NVARCHAR(50) NOT NULL DEFAULT 'user',
    permissions NVARCHAR(MAX),
    is_active BIT NOT NULL DEFAULT 1,
    hashed_password NVARCHAR(255) NOT NULL,
    created_at DATETIME2 NOT NULL DEFAULT SYSUTCDATETIME(),
    updated_at DATETIME2
);
IF NOT EXISTS (SELECT 1 FROM sys.indexes WHERE name = 'uniq_users_username' AND object_id = OBJECT_ID('users'))
CREATE UNIQUE INDEX uniq_users_username ON users (username);
IF NOT EXISTS (SELECT 1 FROM sys.indexes WHERE name = 'uniq_users_email' AND object_id = OBJECT_ID('users'))
CREATE UNIQUE INDEX uniq_users_email ON users (email)`

// UsersPostgres maps users onto a Postgres table with a client-side
// UUID key, native array permissions and unique username and email.
func UsersPostgres() storage.Schema {
	return &tableSchema{
		collection: ModelUsers,
		ddl:        usersPostgresDDL,
		unique:     []string{"username", "email"},
		idColumn:   "id",
		toDB: map[string]func(any) (any, error){
			"permissions": toPgArray,
		},
		fromDB: map[string]func(any) any{
			"id":          fromUUID,
			"permissions": fromPgArray("permissions"),
			"is_active":   fromBool,
			"created_at":  fromTime,
			"updated_at":  fromTime,
		},
		listDefaults: []string{"permissions"},
	}
}

// UsersMySQL maps users onto a MySQL table with a server-side integer
// key and permissions stored as a JSON text column.
func UsersMySQL() storage.Schema {
	return &tableSchema{
		collection: ModelUsers,
		ddl:        usersMySQLDDL,
		unique:     []string{"username", "email"},
		serverID:   true,
		idColumn:   "id",
		toDB: map[string]func(any) (any, error){
			"id":          toInt64,
			"permissions": toJSONList,
		},
		fromDB: map[string]func(any) any{
			"id":          fromInt,
			"permissions": fromJSONList("permissions"),
			"is_active":   fromBool,
			"created_at":  fromTime,
			"updated_at":  fromTime,
		},
		listDefaults: []string{"permissions"},
	}
}

// UsersSQLServer maps users onto a SQL Server table with a client-side
// UNIQUEIDENTIFIER key and permissions stored as a JSON text column.
func UsersSQLServer() storage.Schema {
	return &tableSchema{
		collection: ModelUsers,
		ddl:        usersSQLServerDDL,
		unique:     []string{"username", "email"},
		idColumn:   "id",
		toDB: map[string]func(any) (any, error){
			"permissions": toJSONList,
		},
		fromDB: map[string]func(any) any{
			"id":          fromMSSQLUUID,
			"permissions": fromJSONList("permissions"),
			"is_active":   fromBool,
			"created_at":  fromTime,
			"updated_at":  fromTime,
		},
		listDefaults: []string{"permissions"},
	}
}

// UsersMongoDB maps users onto a collection keyed by a server-side
// ObjectID, with unique indexes on username and email.
func UsersMongoDB() storage.Schema {
	return &tableSchema{
		collection: ModelUsers,
		unique:     []string{"username", "email"},
		serverID:   true,
		idColumn:   "_id",
		toDB: map[string]func(any) (any, error){
			"id": toObjectID,
		},
		fromDB: map[string]func(any) any{
			"id":          fromObjectID,
			"permissions": fromNativeList("permissions"),
			"is_active":   fromBool,
			"created_at":  fromTime,
			"updated_at":  fromTime,
		},
		listDefaults: []string{"permissions"},
	}
}
