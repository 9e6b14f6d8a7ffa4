package postgres

// Schema contains the DDL for the pgvector-backed fragment store. The
// embedding column dimension matches text-embedding-3-small (1536); adjust
// before first use when running a different embedding model.
const Schema = `
CREATE TABLE IF NOT EXISTS memory_fragments (
    id TEXT PRIMARY KEY,
    user_id TEXT NOT NULL,
    source_conversation_id TEXT,
    text TEXT NOT NULL,
    embedding vector(1536) NOT NULL,
    dimension INTEGER NOT NULL,
    embedding_model TEXT,
    metadata JSONB,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_fragments_user
    ON memory_fragments(user_id, created_at DESC);

-- ivfflat cosine index. lists=100 suits up to ~1M rows; ranking order is
-- identical to exact cosine similarity for the probe counts used here.
CREATE INDEX IF NOT EXISTS idx_fragments_embedding
    ON memory_fragments USING ivfflat (embedding vector_cosine_ops) WITH (lists = 100);
`
