package utils

//run redis
//docker run -p 6379:6379 -d redis

//run qdrant (optional, embeddings are skipped without it)
//docker run -p 6333:6333 -p 6334:6334 -v vectorDBData:/qdrant/storage qdrant/qdrant

//swagger init
//swag init -g cmd/api/main.go --parseDependency --parseInternal --dir ./ --output ./cmd/api/docs
