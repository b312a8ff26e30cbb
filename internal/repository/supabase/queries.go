package supabase

// Static GraphQL documents. These are the application's entire backend
// surface: two reads and one write per entity, no dynamic query building.

const queryListPosts = `
  query GetPosts($limit: Int!, $offset: Int!) {
    postsCollection(
      filter: { published: { eq: true } }
      orderBy: [{ published_at: DescNullsLast }, { id: DescNullsLast }]
      first: $limit
      offset: $offset
    ) {
      edges {
        node {
          id
          title
          body
          published_at
          authors {
            name
          }
        }
      }
      pageInfo {
        hasNextPage
        hasPreviousPage
      }
    }
  }
`

const queryGetPostByID = `
  query GetPostById($id: UUID!) {
    postsCollection(filter: { id: { eq: $id } }) {
      edges {
        node {
          id
          title
          body
          published_at
          authors {
            name
          }
        }
      }
    }
  }
`

const mutationCreatePost = `
  mutation CreatePost(
    $title: String!
    $body: String!
    $published: Boolean!
    $author_id: UUID!
  ) {
    insertIntopostsCollection(
      objects: {
        title: $title
        body: $body
        published: $published
        author_id: $author_id
      }
    ) {
      affectedCount
      records {
        id
        title
        body
        published
        published_at
        author_id
      }
    }
  }
`

const queryGetAuthorByID = `
  query GetAuthorById($id: UUID!) {
    authorsCollection(filter: { id: { eq: $id } }, first: 1) {
      edges {
        node {
          id
          name
        }
      }
    }
  }
`

const mutationCreateAuthor = `
  mutation CreateAuthor($id: UUID!, $name: String!, $gender: String!, $age: Int!) {
    insertIntoauthorsCollection(
      objects: { id: $id, name: $name, gender: $gender, age: $age }
    ) {
      affectedCount
      records {
        id
        name
      }
    }
  }
`
